// Package server exposes the allocation service over HTTP.
//
// Booting machines post their fact dump to /upload as the multipart field
// "file", the way the provisioning ramdisk does with curl:
//
//	curl -s -F file=@hw.yaml http://bootserver:8080/upload
//
// A successful request answers 200 with the bindings document and the
// profile template. Failures answer with an empty body: 404 when no profile
// matched, 409 when the CMDB of the matched profile is full, 400 for an
// unreadable upload and 500 otherwise. The details only go to the log.
//
// Prometheus metrics are served on /metrics and a liveness probe on
// /healthz.
package server
