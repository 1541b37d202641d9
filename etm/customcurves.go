// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/quintel/goetm/internal/csvio"
	"github.com/quintel/goetm/models"
)

// CustomCurveOptions widens the custom curve index.
type CustomCurveOptions struct {
	// IncludeUnattached also lists curve slots without uploaded data.
	IncludeUnattached bool
	// IncludeInternal also lists curves managed by the engine itself.
	IncludeInternal bool
}

func (o CustomCurveOptions) query() url.Values {
	query := url.Values{}
	if o.IncludeUnattached {
		query.Set("include_unattached", "true")
	}
	if o.IncludeInternal {
		query.Set("include_internal", "true")
	}
	if len(query) == 0 {
		return nil
	}
	return query
}

// CustomCurves fetches the custom curve index of a scenario.
func (c *Client) CustomCurves(ctx context.Context, scenarioID int, opts CustomCurveOptions) (*models.CustomCurveSet, error) {
	var curves []models.CustomCurveInfo
	err := c.getJSON(ctx, "fetch custom curves", scenarioPath(scenarioID)+"/custom_curves", opts.query(), &curves)
	if err != nil {
		return nil, err
	}
	return &models.CustomCurveSet{Curves: curves}, nil
}

// CustomCurveKeys returns the curve keys of the index.
func (c *Client) CustomCurveKeys(ctx context.Context, scenarioID int, opts CustomCurveOptions) ([]string, error) {
	set, err := c.CustomCurves(ctx, scenarioID, opts)
	if err != nil {
		return nil, err
	}
	return set.Keys(), nil
}

// DownloadCustomCurve fetches the hourly values of an attached curve.
func (c *Client) DownloadCustomCurve(ctx context.Context, scenarioID int, key string) ([]float64, error) {
	if err := c.validateCurveKey(ctx, scenarioID, key); err != nil {
		return nil, err
	}

	op := "download custom curve"
	payload, err := c.do(ctx, request{
		op:     op,
		method: "GET",
		path:   scenarioPath(scenarioID) + "/custom_curves/" + key,
		accept: "text/csv",
	})
	if err != nil {
		return nil, err
	}

	values, err := csvio.ReadSeries(bytes.NewReader(payload))
	if err != nil {
		return nil, &EngineError{Sentinel: ErrBadResponse, Operation: op, Err: err}
	}
	return values, nil
}

// UploadCustomCurve attaches hourly values to a curve slot. The curve must
// hold exactly one year of hourly data. An empty name stores the key as the
// curve's display name.
func (c *Client) UploadCustomCurve(ctx context.Context, scenarioID int, key, name string, values []float64) (*models.CustomCurveInfo, error) {
	if len(values) != models.CurveLength {
		return nil, fmt.Errorf("etm: upload custom curve: curve must contain %d values, got %d",
			models.CurveLength, len(values))
	}
	if err := c.validateCurveKey(ctx, scenarioID, key); err != nil {
		return nil, err
	}
	if name == "" {
		name = key
	}

	var payload bytes.Buffer
	if err := csvio.EncodeSeries(&payload, values); err != nil {
		return nil, fmt.Errorf("etm: upload custom curve: encode values: %w", err)
	}

	var info models.CustomCurveInfo
	err := c.putMultipart(ctx, "upload custom curve",
		scenarioPath(scenarioID)+"/custom_curves/"+key, "file", name, payload.Bytes(), &info)
	if err != nil {
		return nil, err
	}
	if info.Key == "" {
		info.Key = key
	}
	c.invalidate(scenarioID)
	return &info, nil
}

// DeleteCustomCurve detaches a curve. Detaching a curve that has no data is
// not an error; the attempt is only logged.
func (c *Client) DeleteCustomCurve(ctx context.Context, scenarioID int, key string) error {
	if err := c.validateCurveKey(ctx, scenarioID, key); err != nil {
		return err
	}

	set, err := c.CustomCurves(ctx, scenarioID, CustomCurveOptions{})
	if err != nil {
		return err
	}
	if !set.IsAttached(key) {
		c.logger.Warn().
			Int("scenario_id", scenarioID).
			Str("curve_key", key).
			Msg("attempted to remove custom curve that is not attached")
		return nil
	}

	if err := c.delete(ctx, "delete custom curve", scenarioPath(scenarioID)+"/custom_curves/"+key); err != nil {
		return err
	}
	c.invalidate(scenarioID)
	return nil
}

// DeleteCustomCurves detaches the given curves, or every attached curve when
// none are named.
func (c *Client) DeleteCustomCurves(ctx context.Context, scenarioID int, keys ...string) error {
	attached, err := c.CustomCurves(ctx, scenarioID, CustomCurveOptions{})
	if err != nil {
		return err
	}

	targets := attached.AttachedKeys()
	if len(keys) > 0 {
		targets = nil
		for _, key := range keys {
			if attached.IsAttached(key) {
				targets = append(targets, key)
			}
		}
	}

	if len(targets) == 0 {
		c.logger.Warn().
			Int("scenario_id", scenarioID).
			Msg("attempted to remove custom curves while none are attached")
		return nil
	}

	for _, key := range targets {
		if err := c.delete(ctx, "delete custom curve", scenarioPath(scenarioID)+"/custom_curves/"+key); err != nil {
			return err
		}
	}
	c.invalidate(scenarioID)
	return nil
}

// validateCurveKey rejects keys the scenario has no curve slot for.
func (c *Client) validateCurveKey(ctx context.Context, scenarioID int, key string) error {
	if key == "" {
		return fmt.Errorf("etm: no key specified for custom curve")
	}

	keys, err := c.CustomCurveKeys(ctx, scenarioID, CustomCurveOptions{
		IncludeUnattached: true,
		IncludeInternal:   true,
	})
	if err != nil {
		return err
	}
	for _, known := range keys {
		if known == key {
			return nil
		}
	}
	return fmt.Errorf("etm: %q is not a valid custom curve key", key)
}
