package domain

type AssetKind string

const (
	AssetEquipment AssetKind = "equipment"
	AssetEmployee  AssetKind = "employee"
	AssetLivestock AssetKind = "livestock"
)

// TrackedAsset is the registered entity a device reports for. For employees
// and livestock DeviceID is their tracker device id.
type TrackedAsset struct {
	ID       int64     `json:"id"`
	Kind     AssetKind `json:"kind"`
	OwnerID  int64     `json:"owner_id"`
	Name     string    `json:"name"`
	DeviceID string    `json:"device_id"`
}
