// SPDX-License-Identifier: EUPL-1.2

// Package csvio writes curve and table exports to disk. All writes go
// through renameio so a crashed export never leaves a half-written file.
package csvio

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/google/renameio/v2"

	"github.com/quintel/goetm/internal/log"
	"github.com/quintel/goetm/models"
)

// WriteFile atomically writes to path whatever write produces. The pending
// file is fsynced before the rename, so a power failure leaves either the
// old file or the new one.
func WriteFile(ctx context.Context, path string, write func(io.Writer) error) error {
	logger := log.FromContext(ctx)

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Str(log.FieldPath, path).Msg("cleanup pending file")
		}
	}()

	if err := write(pending); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

// WriteFrame atomically writes a frame as CSV.
func WriteFrame(ctx context.Context, path string, f *models.Frame) error {
	return WriteFile(ctx, path, f.Encode)
}

// WriteSeries atomically writes hourly values, one per line without a
// header. This is the shape the engine accepts for custom curve uploads.
func WriteSeries(ctx context.Context, path string, values []float64) error {
	return WriteFile(ctx, path, func(w io.Writer) error {
		return EncodeSeries(w, values)
	})
}

// EncodeSeries writes one value per line.
func EncodeSeries(w io.Writer, values []float64) error {
	buf := make([]byte, 0, 32)
	for _, v := range values {
		buf = strconv.AppendFloat(buf[:0], v, 'g', -1, 64)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
