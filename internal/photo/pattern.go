package photo

import (
	"regexp"
	"strings"
	"time"
)

// Default dimensions recorded when the header reports a zero size.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

const takenAtLayout = "2006-01-02_15-04-05.000"

var (
	fileNamePattern = regexp.MustCompile(`^VRChat_.+\.(?i:png|jpe?g|webp)$`)
	takenAtPattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.\d{3}`)
)

// IsPhotoFile reports whether name looks like a VRChat photo. Hidden files
// never match.
func IsPhotoFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return fileNamePattern.MatchString(name)
}

// ParseTakenAt extracts the capture time from a VRChat file name such as
// VRChat_2024-01-15_10-30-00.123_1920x1080.png. The name carries no zone, so
// it is interpreted in loc.
func ParseTakenAt(name string, loc *time.Location) (time.Time, bool) {
	match := takenAtPattern.FindString(name)
	if match == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(takenAtLayout, match, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
