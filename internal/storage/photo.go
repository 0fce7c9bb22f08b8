package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

const photoPrefix = "photos/"

// allowedPhotoExtensions are the only upload extensions accepted for
// profile photos.
var allowedPhotoExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// PhotoContentType maps an accepted filename to its content type.
// The second return is false for disallowed extensions.
func PhotoContentType(filename string) (string, bool) {
	contentType, ok := allowedPhotoExtensions[strings.ToLower(path.Ext(filename))]
	return contentType, ok
}

// PhotoKey builds the storage key for an uploaded photo. The original
// name is kept, prefixed with the upload time so repeated uploads of
// the same file never collide.
func PhotoKey(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", ""))
	return fmt.Sprintf("%s%d-%s", photoPrefix, time.Now().Unix(), base)
}
