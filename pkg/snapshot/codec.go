package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/younsl/ec2stats/internal/models"
)

// Document names used in DecodeError
const (
	DocumentSnapshot = "snapshot"
	DocumentSummary  = "summary"
)

// DecodeError reports a document that could not be decoded
type DecodeError struct {
	Document string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Document, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// wireSnapshot mirrors models.Snapshot with pointers to detect missing fields
type wireSnapshot struct {
	OwnerID   *string           `json:"OwnerId"`
	Instances *[]wireInstance   `json:"Instances"`
	Threshold *models.Threshold `json:"Threshold"`
}

type wireInstance struct {
	Region       string             `json:"Region"`
	InstanceID   *string            `json:"InstanceId"`
	InstanceType string             `json:"InstanceType"`
	State        string             `json:"State"`
	Tags         []models.Tag       `json:"Tags"`
	Stats        []models.Datapoint `json:"Stats"`
}

// Encode returns the compact JSON document of s
func Encode(s models.Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot document. Unknown fields are ignored and
// a missing Threshold decodes as the default.
func DecodeSnapshot(data []byte) (models.Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return models.Snapshot{}, &DecodeError{Document: DocumentSnapshot, Err: err}
	}
	if w.OwnerID == nil {
		return models.Snapshot{}, &DecodeError{Document: DocumentSnapshot, Err: errors.New("missing required field OwnerId")}
	}
	if w.Instances == nil {
		return models.Snapshot{}, &DecodeError{Document: DocumentSnapshot, Err: errors.New("missing required field Instances")}
	}

	s := models.Snapshot{
		OwnerID:   *w.OwnerID,
		Instances: make([]models.InstanceRecord, 0, len(*w.Instances)),
		Threshold: models.DefaultThreshold(),
	}
	if w.Threshold != nil {
		s.Threshold = *w.Threshold
	}

	for i, inst := range *w.Instances {
		if inst.InstanceID == nil {
			return models.Snapshot{}, &DecodeError{
				Document: DocumentSnapshot,
				Err:      fmt.Errorf("instance %d: missing required field InstanceId", i),
			}
		}
		rec := models.InstanceRecord{
			Region:       inst.Region,
			InstanceID:   *inst.InstanceID,
			InstanceType: inst.InstanceType,
			State:        inst.State,
			Tags:         inst.Tags,
			Stats:        inst.Stats,
		}
		if rec.Tags == nil {
			rec.Tags = []models.Tag{}
		}
		if rec.Stats == nil {
			rec.Stats = []models.Datapoint{}
		}
		for j := range rec.Stats {
			rec.Stats[j].Timestamp = normalizeTime(rec.Stats[j].Timestamp)
		}
		s.Instances = append(s.Instances, rec)
	}
	return s, nil
}

// DecodeSummary parses the analysis response. The Summary wrapper is required.
func DecodeSummary(data []byte) (*models.Summary, error) {
	var resp models.SummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &DecodeError{Document: DocumentSummary, Err: err}
	}
	if resp.Summary == nil {
		return nil, &DecodeError{Document: DocumentSummary, Err: errors.New("missing required field Summary")}
	}
	return resp.Summary, nil
}

// normalizeTime converts t to UTC, keeping its instant
func normalizeTime(t time.Time) time.Time {
	return t.UTC()
}
