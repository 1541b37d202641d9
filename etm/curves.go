// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"fmt"

	"github.com/quintel/goetm/models"
)

// Hourly curve kinds served by the curves endpoint.
const (
	CurveMeritOrder       = "merit_order"
	CurveElectricityPrice = "electricity_price"
	CurveHeatNetwork      = "heat_network"
	CurveHouseholdHeat    = "household_heat"
	CurveHydrogen         = "hydrogen"
	CurveNetworkGas       = "network_gas"
)

// CurveKinds lists every hourly curve kind.
var CurveKinds = []string{
	CurveMeritOrder,
	CurveElectricityPrice,
	CurveHeatNetwork,
	CurveHouseholdHeat,
	CurveHydrogen,
	CurveNetworkGas,
}

// Curve downloads one hourly curve document. All hourly curves come from the
// merit order calculation, so the scenario must have it enabled.
func (c *Client) Curve(ctx context.Context, scenarioID int, kind string) (*models.Frame, error) {
	if !validCurveKind(kind) {
		return nil, fmt.Errorf("etm: fetch curve: unknown curve kind %q", kind)
	}

	enabled, err := c.MeritOrderEnabled(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, &EngineError{Sentinel: ErrMeritOrderDisabled, Operation: "fetch curve " + kind}
	}

	return c.getCSV(ctx, "fetch curve "+kind, scenarioPath(scenarioID)+"/curves/"+kind, nil)
}

// ElectricityPriceCurve downloads the hourly electricity price as a plain
// series.
func (c *Client) ElectricityPriceCurve(ctx context.Context, scenarioID int) ([]float64, error) {
	frame, err := c.Curve(ctx, scenarioID, CurveElectricityPrice)
	if err != nil {
		return nil, err
	}
	if frame.NumCols() < 2 {
		return nil, &EngineError{Sentinel: ErrBadResponse, Operation: "fetch curve " + CurveElectricityPrice,
			Err: fmt.Errorf("expected a time and a price column, got %v", frame.Columns)}
	}
	// first column is the time index
	return frame.FloatColumn(frame.Columns[1])
}

func validCurveKind(kind string) bool {
	for _, k := range CurveKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Tables served as CSV by the scenario export endpoints.
const (
	TableApplicationDemands = "application_demands"
	TableEnergyFlows        = "energy_flow"
	TableProductionParams   = "production_parameters"
	TableSankey             = "sankey"
	TableStorageParams      = "storage_parameters"
)

// ExportTables lists every scenario export table.
var ExportTables = []string{
	TableApplicationDemands,
	TableEnergyFlows,
	TableProductionParams,
	TableSankey,
	TableStorageParams,
}

// ExportTable downloads one of the scenario's CSV export tables.
func (c *Client) ExportTable(ctx context.Context, scenarioID int, table string) (*models.Frame, error) {
	if !validExportTable(table) {
		return nil, fmt.Errorf("etm: export table: unknown table %q", table)
	}
	return c.getCSV(ctx, "export "+table, scenarioPath(scenarioID)+"/"+table, nil)
}

// ApplicationDemands downloads final demand per application.
func (c *Client) ApplicationDemands(ctx context.Context, scenarioID int) (*models.Frame, error) {
	return c.ExportTable(ctx, scenarioID, TableApplicationDemands)
}

// EnergyFlows downloads the energy flow table.
func (c *Client) EnergyFlows(ctx context.Context, scenarioID int) (*models.Frame, error) {
	return c.ExportTable(ctx, scenarioID, TableEnergyFlows)
}

// ProductionParameters downloads the production parameter table.
func (c *Client) ProductionParameters(ctx context.Context, scenarioID int) (*models.Frame, error) {
	return c.ExportTable(ctx, scenarioID, TableProductionParams)
}

// Sankey downloads the sankey diagram data.
func (c *Client) Sankey(ctx context.Context, scenarioID int) (*models.Frame, error) {
	return c.ExportTable(ctx, scenarioID, TableSankey)
}

// StorageParameters downloads storage volumes and capacities.
func (c *Client) StorageParameters(ctx context.Context, scenarioID int) (*models.Frame, error) {
	return c.ExportTable(ctx, scenarioID, TableStorageParams)
}

func validExportTable(table string) bool {
	for _, t := range ExportTables {
		if t == table {
			return true
		}
	}
	return false
}
