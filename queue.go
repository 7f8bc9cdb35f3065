package byplay

import (
	"strings"

	"github.com/domonda/go-errs"
)

// DefaultQueue is the on-disk string substituted for the empty/nil queue
// tag at the scheduling API boundary.
const DefaultQueue = "default"

// queueNamespaceSeparator marks a namespace component in a queue tag.
// Queue tags given to Encode must not contain one.
const queueNamespaceSeparator = "/"

// ErrNamespacedQueue is returned by Encode when passed a tag
// with a namespace component.
var ErrNamespacedQueue = errs.Sentinel("queue tag must not contain a namespace component")

// Encode maps an in-process queue tag to its on-disk string form.
// An empty tag is not valid input here: callers must substitute
// DefaultQueue themselves before calling Encode.
func Encode(tag string) (string, error) {
	if tag == "" {
		return "", errs.Errorf("%w: empty queue tag", ErrNamespacedQueue)
	}
	if strings.Contains(tag, queueNamespaceSeparator) {
		return "", errs.Errorf("%w: %q", ErrNamespacedQueue, tag)
	}
	return tag, nil
}

// Decode maps an on-disk queue string back to its in-process tag.
// It is the identity function: queue tags have no encoding beyond
// the namespace-freedom check performed by Encode.
func Decode(s string) string {
	return s
}

// encodeOrDefault returns DefaultQueue for an empty tag and encodes any
// other tag, per the scheduling API's "null means default" rule.
func encodeOrDefault(tag string) (string, error) {
	if tag == "" {
		return DefaultQueue, nil
	}
	return Encode(tag)
}
