package middleware

import "errors"

var (
	errMissingUser = errors.New("missing " + HeaderUserID + " header")
	errInvalidUser = errors.New("invalid " + HeaderUserID + " header")
)
