package handlers

import (
	"mime"
	"strconv"
)

// itoa formats a numeric ID for comparison with route params.
func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// attachmentDisposition builds a Content-Disposition header value with the
// file name escaped, so stored names cannot inject header syntax.
func attachmentDisposition(fileName string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
}
