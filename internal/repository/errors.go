package repository

import "errors"

var (
	ErrNavigationTimeout = errors.New("navigation timed out")
	ErrNavigationFailed  = errors.New("navigation failed")
	ErrStructureNotFound = errors.New("expected page structure not found")
	ErrRootNavigation    = errors.New("root page could not be loaded")
)
