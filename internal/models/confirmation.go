package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ConfirmationStatus is the state of a vegetable-list confirmation
type ConfirmationStatus string

const (
	ConfirmPending   ConfirmationStatus = "pending"
	ConfirmConfirmed ConfirmationStatus = "confirmed"
	ConfirmNo        ConfirmationStatus = "no"
	ConfirmNotYet    ConfirmationStatus = "notyet"
)

// PendingConfirmation tracks one partner's answer for one business date
type PendingConfirmation struct {
	Status      ConfirmationStatus `json:"status"`
	LastUpdated time.Time          `json:"lastUpdated"`
	NextCheck   *time.Time         `json:"nextCheck"`
}

// ConfirmationKey identifies a confirmation by business date and partner
type ConfirmationKey struct {
	Date      string
	PartnerID int64
}

// Confirmations is persisted as {date: {partnerId: entry}}
type Confirmations map[ConfirmationKey]*PendingConfirmation

// MarshalJSON nests entries by date then partner id
func (c Confirmations) MarshalJSON() ([]byte, error) {
	nested := make(map[string]map[string]*PendingConfirmation)
	for k, v := range c {
		byPartner, ok := nested[k.Date]
		if !ok {
			byPartner = make(map[string]*PendingConfirmation)
			nested[k.Date] = byPartner
		}
		byPartner[strconv.FormatInt(k.PartnerID, 10)] = v
	}
	return json.Marshal(nested)
}

// UnmarshalJSON reads the nested {date: {partnerId: entry}} layout
func (c *Confirmations) UnmarshalJSON(data []byte) error {
	var nested map[string]map[string]*PendingConfirmation
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}
	out := make(Confirmations)
	for date, byPartner := range nested {
		for raw, v := range byPartner {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("confirmation partner id %q: %w", raw, err)
			}
			if v != nil {
				out[ConfirmationKey{Date: date, PartnerID: id}] = v
			}
		}
	}
	*c = out
	return nil
}
