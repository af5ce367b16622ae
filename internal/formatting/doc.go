// Package formatting renders profiles and CMDBs for operators, as tables or
// as YAML.
package formatting
