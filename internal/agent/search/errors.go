package search

import "errors"

var errEmptyIndex = errors.New("index is empty")
