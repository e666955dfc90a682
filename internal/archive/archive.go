// Package archive keeps a JSON dossier for every finalized declaration.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/customs"
	"github.com/OpenNSW/customs/internal/declaration"
)

const contentType = "application/json"

// Dossier is the archived record of a finalized declaration.
type Dossier struct {
	Declaration declaration.Document    `json:"declaration"`
	OfficeID    uuid.UUID               `json:"officeId"`
	Assessments []customs.TaxAssessment `json:"assessments"`
	ArchivedAt  time.Time               `json:"archivedAt"`
}

// Receipt describes a stored dossier.
type Receipt struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Archiver writes and reads dossiers through a StorageDriver.
type Archiver struct {
	Driver StorageDriver
}

func NewArchiver(driver StorageDriver) *Archiver {
	return &Archiver{Driver: driver}
}

// Key is the object key of a declaration's dossier.
func Key(declarationID uuid.UUID) string {
	return declarationID.String() + ".json"
}

// Store archives the dossier of an Approved or Rejected declaration.
func (a *Archiver) Store(ctx context.Context, d Dossier) (*Receipt, error) {
	if !d.Declaration.State().IsTerminal() {
		return nil, &declaration.IncorrectStateError{ID: d.Declaration.ID(), Actual: d.Declaration.State().String()}
	}
	if d.ArchivedAt.IsZero() {
		d.ArchivedAt = time.Now().UTC()
	}

	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dossier: %w", err)
	}

	key := Key(d.Declaration.ID())
	if err := a.Driver.Save(ctx, key, bytes.NewReader(body), contentType); err != nil {
		return nil, fmt.Errorf("storage driver failed: %w", err)
	}

	url, err := a.Driver.GenerateURL(ctx, key, 0)
	if err != nil {
		if delErr := a.Driver.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to cleanup orphaned dossier", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to generate URL: %w", err)
	}

	slog.InfoContext(ctx, "dossier archived", "declarationID", d.Declaration.ID(), "key", key)
	return &Receipt{Key: key, URL: url, Size: int64(len(body))}, nil
}

// Load reads back the dossier of a declaration.
func (a *Archiver) Load(ctx context.Context, declarationID uuid.UUID) (*Dossier, error) {
	body, _, err := a.Driver.Get(ctx, Key(declarationID))
	if err != nil {
		return nil, fmt.Errorf("failed to read dossier %s: %w", declarationID, err)
	}
	defer body.Close()

	var d Dossier
	if err := json.NewDecoder(body).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode dossier %s: %w", declarationID, err)
	}
	return &d, nil
}

// URL returns a link to a declaration's dossier.
func (a *Archiver) URL(ctx context.Context, declarationID uuid.UUID, expires time.Duration) (string, error) {
	return a.Driver.GenerateURL(ctx, Key(declarationID), expires)
}
