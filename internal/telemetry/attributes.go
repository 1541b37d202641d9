// SPDX-License-Identifier: EUPL-1.2

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Attribute keys for engine domain concepts.
const (
	AttrScenarioID    = attribute.Key("etm.scenario.id")
	AttrAreaCode      = attribute.Key("etm.scenario.area_code")
	AttrEndYear       = attribute.Key("etm.scenario.end_year")
	AttrCurveKind     = attribute.Key("etm.curve.kind")
	AttrCurveKey      = attribute.Key("etm.custom_curve.key")
	AttrGqueryCount   = attribute.Key("etm.gquery.count")
	AttrBatchRunID    = attribute.Key("etm.batch.run_id")
	AttrBatchSize     = attribute.Key("etm.batch.size")
	AttrOperation     = attribute.Key("etm.operation")
	AttrSavedScenario = attribute.Key("etm.saved_scenario.id")
)

// ScenarioAttributes returns the standard attributes attached to spans that
// operate on a single scenario.
func ScenarioAttributes(scenarioID int, areaCode string, endYear int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		AttrScenarioID.Int(scenarioID),
	}
	if areaCode != "" {
		attrs = append(attrs, AttrAreaCode.String(areaCode))
	}
	if endYear != 0 {
		attrs = append(attrs, AttrEndYear.Int(endYear))
	}
	return attrs
}

// HTTPAttributes returns standard attributes for HTTP operations.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.HTTPMethodKey.String(method),
		semconv.HTTPRouteKey.String(route),
		semconv.HTTPURLKey.String(url),
		semconv.HTTPStatusCodeKey.Int(statusCode),
	}
}
