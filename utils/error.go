package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorAccessDenied means the caller referenced a project that exists but is
// outside their grant set. Callers must keep it distinguishable from
// ErrorRecordNotFound so users can tell "no permission" from "doesn't exist".
var ErrorAccessDenied = errors.New("access denied")
