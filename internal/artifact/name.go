package artifact

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// timestampLayout is the second-resolution part of a name timestamp; the
// microseconds follow as a separate zero-padded field.
const timestampLayout = "20060102_150405"

// Name is the decoded form of an artifact file name
type Name struct {
	TaskID    string
	Slot      int
	CreatedAt time.Time
	Ext       string
}

// FormatName builds {taskID}_{slot}_{YYYYMMDD_HHMMSS_micros}{ext}. ext
// includes the leading dot.
func FormatName(taskID string, slot int, t time.Time, ext string) string {
	t = t.UTC()
	return fmt.Sprintf("%s_%d_%s_%06d%s",
		taskID, slot, t.Format(timestampLayout), t.Nanosecond()/int(time.Microsecond), ext)
}

// ParseName decodes a file name produced by FormatName.
func ParseName(name string) (Name, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	// Fields are split from the right: the task id itself is opaque.
	parts := strings.Split(stem, "_")
	if len(parts) < 5 {
		return Name{}, fmt.Errorf("%w: %q does not match artifact name grammar", ErrInvalidReference, name)
	}
	n := len(parts)
	date, clock, micros := parts[n-3], parts[n-2], parts[n-1]

	slot, err := strconv.Atoi(parts[n-4])
	if err != nil || slot < 0 {
		return Name{}, fmt.Errorf("%w: %q has invalid slot", ErrInvalidReference, name)
	}

	taskID := strings.Join(parts[:n-4], "_")
	if taskID == "" {
		return Name{}, fmt.Errorf("%w: %q has empty task id", ErrInvalidReference, name)
	}

	t, err := time.ParseInLocation(timestampLayout, date+"_"+clock, time.UTC)
	if err != nil {
		return Name{}, fmt.Errorf("%w: %q has invalid timestamp: %v", ErrInvalidReference, name, err)
	}
	us, err := strconv.Atoi(micros)
	if err != nil || len(micros) != 6 || us < 0 {
		return Name{}, fmt.Errorf("%w: %q has invalid microseconds", ErrInvalidReference, name)
	}

	return Name{
		TaskID:    taskID,
		Slot:      slot,
		CreatedAt: t.Add(time.Duration(us) * time.Microsecond),
		Ext:       ext,
	}, nil
}
