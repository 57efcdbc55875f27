package api

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// errorDetail extracts the user facing message of an error body. The
// backend sends {"detail": ...}; validation failures carry a list of
// objects with a "msg" field instead of a string.
func errorDetail(body []byte, status int) string {
	if detail := lookupDetail(body); detail != "" {
		return detail
	}
	return fmt.Sprintf("Error %d", status)
}

// lookupDetail returns detail, then message, or "" when neither is usable
func lookupDetail(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}

	result := gjson.ParseBytes(body)
	for _, key := range []string{PathDetail, PathMessage} {
		if text := detailText(result.Get(key)); text != "" {
			return text
		}
	}
	return ""
}

func detailText(v gjson.Result) string {
	switch {
	case !v.Exists():
		return ""
	case v.Type == gjson.String:
		return strings.TrimSpace(v.String())
	case v.IsArray():
		var parts []string
		for _, item := range v.Array() {
			if msg := item.Get(PathValidationMsg); msg.Exists() {
				parts = append(parts, msg.String())
			} else if item.Type == gjson.String {
				parts = append(parts, item.String())
			}
		}
		return strings.Join(parts, "; ")
	case v.Type == gjson.Null, v.Type == gjson.False:
		return ""
	default:
		return v.Raw
	}
}
