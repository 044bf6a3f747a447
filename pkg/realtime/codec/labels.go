package codec

import "strings"

// splitLabels parses an encoding field into its slash-separated labels,
// left to right. An empty string yields no labels.
func splitLabels(encoding string) []string {
	if encoding == "" {
		return nil
	}
	return strings.Split(encoding, "/")
}

// joinLabels is the inverse of splitLabels.
func joinLabels(labels []string) string {
	return strings.Join(labels, "/")
}

// appendLabel appends label to the right of encoding, the transform most
// recently applied.
func appendLabel(encoding, label string) string {
	if encoding == "" {
		return label
	}
	return encoding + "/" + label
}

// trailingLabel returns the rightmost label of encoding and the encoding
// with that label removed. ok is false if encoding is empty.
func trailingLabel(encoding string) (rest, label string, ok bool) {
	labels := splitLabels(encoding)
	if len(labels) == 0 {
		return "", "", false
	}
	label = labels[len(labels)-1]
	rest = joinLabels(labels[:len(labels)-1])
	return rest, label, true
}
