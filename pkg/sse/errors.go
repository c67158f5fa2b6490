package sse

import "errors"

var ErrFlushUnsupported = errors.New("sse: response writer does not support flushing")
