// File: internal/bypass/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package bypass

import "github.com/netgroup-polito/ringpmd/api"

// ErrNotDetached reports attach_bypass called outside bypass_state ==
// Detached (spec §4.3 precondition).
func ErrNotDetached() *api.Error {
	return api.NewError(api.ErrCodeConfig, "attach_bypass: bypass_state must be Detached")
}

// ErrNotAttached reports detach_bypass called outside bypass_state ==
// Attached.
func ErrNotAttached() *api.Error {
	return api.NewError(api.ErrCodeConfig, "detach_bypass: bypass_state must be Attached")
}

// ErrNICSetupFailed wraps a bypass NIC configuration/setup failure,
// classified as a resource error per spec §7.
func ErrNICSetupFailed(step string, cause error) *api.Error {
	return api.NewError(api.ErrCodeResource, "attach_bypass: "+step+" failed").WithContext("cause", cause)
}
