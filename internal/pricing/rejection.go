package pricing

// Package pricing implements the order total composition chain: coupon
// evaluation, loyalty redemption, shipping zone resolution, tax and the
// final composer. Everything here is pure; persistence side effects
// live in the services layer.

import "errors"

// Rejection is a business-rule failure. It is expected, safe to show to
// the buyer, and must never be reported as a system fault. Reason is a
// stable machine code used for metrics; Message is the user-facing text.
type Rejection struct {
	Reason  string
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(reason, message string) error {
	return &Rejection{Reason: reason, Message: message}
}

// AsRejection unwraps err into a Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}

// IsRejection reports whether err is a business-rule rejection rather
// than an infrastructure failure.
func IsRejection(err error) bool {
	_, ok := AsRejection(err)
	return ok
}
