package drafts

import "context"

// Repository persists the per-device draft file. A missing file loads as
// an empty one; implementations surface storage faults to the caller and
// leave the degrade policy to the service.
type Repository interface {
	LoadFile(ctx context.Context, deviceID string) (*DraftFile, error)
	SaveFile(ctx context.Context, deviceID string, f *DraftFile) error
}
