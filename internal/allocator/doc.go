// Package allocator assigns a booting machine to a profile and reserves its
// CMDB slot.
//
// A request runs as follows:
//
//  1. optionally register the machine with pxemngr (outside the lock)
//  2. acquire the fleet lock; it is released on every return path
//  3. load the profiles and select the first eligible match
//  4. consume one use of the profile in memory
//  5. reserve a CMDB entry when the profile has a CMDB
//  6. persist the CMDB, then the profile budgets
//
// Every failure fails closed: nothing is returned for the machine and
// nothing is persisted. A machine that is wrongly or partially configured
// must never boot.
package allocator
