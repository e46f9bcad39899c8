package service

import "github.com/nandanugg/tracker-geofence/module/core/domain"

// ContainmentEvaluator turns a fix and its owner's active boundaries into a
// verdict. It is pure and safe for concurrent use.
type ContainmentEvaluator struct{}

func (ContainmentEvaluator) Evaluate(fix *domain.TelemetryFix, fences *domain.GeofenceSet) domain.ContainmentVerdict {
	if fences.Len() == 0 {
		return domain.ContainmentVerdict{}
	}
	matched, inside := fences.ContainsAny(fix.Point())
	return domain.ContainmentVerdict{
		Inside:    inside,
		HasFences: true,
		Matched:   matched,
	}
}
