package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ercase/ercase/internal/platform/kv"
)

const draftKeyPrefix = "ercase:drafts:"

// SweepPattern matches every device's draft file key.
const SweepPattern = draftKeyPrefix + "*"

type repoKV struct{ store kv.Store }

func NewRepoKV(store kv.Store) Repository { return &repoKV{store: store} }

func draftKey(deviceID string) string {
	return draftKeyPrefix + deviceID
}

// DeviceFromKey recovers the device id from a draft file key.
func DeviceFromKey(key string) string {
	return strings.TrimPrefix(key, draftKeyPrefix)
}

func emptyFile() *DraftFile {
	return &DraftFile{Drafts: []DraftCase{}}
}

// LoadFile always returns a usable file. A missing key is an empty file;
// faults and corrupt blobs return an empty file alongside the error.
func (r *repoKV) LoadFile(ctx context.Context, deviceID string) (*DraftFile, error) {
	raw, err := r.store.Get(ctx, draftKey(deviceID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return emptyFile(), nil
		}
		return emptyFile(), err
	}
	var f DraftFile
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return emptyFile(), fmt.Errorf("draft file corrupt: %w", err)
	}
	if f.Drafts == nil {
		f.Drafts = []DraftCase{}
	}
	return &f, nil
}

func (r *repoKV) SaveFile(ctx context.Context, deviceID string, f *DraftFile) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, draftKey(deviceID), string(raw))
}
