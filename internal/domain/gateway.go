package domain

import "encoding/json"

// LineInput adds a variant to a cart.
type LineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
	SellingPlanID string `json:"sellingPlanId,omitempty"`
}

// LineUpdate changes an existing line.
type LineUpdate struct {
	ID            string `json:"id"`
	Quantity      int    `json:"quantity"`
	MerchandiseID string `json:"merchandiseId,omitempty"`
}

// CheckResult is the answer to "does this cart still exist". An empty ID
// means it does not; it is encoded as {"id": null}.
type CheckResult struct {
	ID string
}

func (r CheckResult) Valid() bool { return r.ID != "" }

func (r CheckResult) MarshalJSON() ([]byte, error) {
	var id *string
	if r.ID != "" {
		id = &r.ID
	}
	return json.Marshal(struct {
		ID *string `json:"id"`
	}{ID: id})
}

func (r *CheckResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID *string `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.ID = ""
	if raw.ID != nil {
		r.ID = *raw.ID
	}
	return nil
}
