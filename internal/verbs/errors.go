// File: internal/verbs/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package verbs

import "github.com/netgroup-polito/ringpmd/api"

// ErrBadDescCount reports desc not a multiple of SGWRN (spec §4.4
// precondition), a config error per the taxonomy in spec §7.
func ErrBadDescCount(desc int) *api.Error {
	return api.NewError(api.ErrCodeConfig, "rxq_setup: desc must be a multiple of SG_WR_N").
		WithContext("desc", desc).WithContext("sg_wr_n", SGWRN)
}

// ErrSetupFailed wraps a resource-error failure during rxq_setup,
// identifying the step that failed for the reverse-order rollback log.
func ErrSetupFailed(step string, cause error) *api.Error {
	return api.NewError(api.ErrCodeResource, "rxq_setup: "+step+" failed").WithContext("cause", cause)
}

// ErrQueueUnusable reports the spec §4.6/§7 "post-rehash failure"
// documented contract: once torn down, the queue cannot be restored.
func ErrQueueUnusable(cause error) *api.Error {
	return api.NewError(api.ErrCodePostRehash, "rxq_rehash: queue unusable after partial teardown").
		WithContext("cause", cause)
}
