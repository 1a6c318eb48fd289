package controllers

import "strings"

// isNotFound matches the store layer's lookup miss errors so handlers can map
// them to 404 instead of 500.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not-found")
}
