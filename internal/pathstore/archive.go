package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = eris.New("pathstore: not found")

// StrategyRecord is an archived strategy run.
type StrategyRecord struct {
	JobID     string    `json:"job_id"`
	BrandName string    `json:"brand_name"`
	Industry  string    `json:"industry"`
	Source    string    `json:"source"`
	Questions int       `json:"questions"`
	Report    string    `json:"report"`
	Strategy  string    `json:"strategy"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive stores strategies under brands/{brand}/strategies/{job_id}.
type Archive struct {
	client *Client
}

func NewArchive(client *Client) *Archive {
	return &Archive{client: client}
}

// StrategyKey returns the pathstore key for a brand slug and job.
func StrategyKey(brandSlug, jobID string) string {
	return fmt.Sprintf("%s/%s", strategiesPrefix(brandSlug), jobID)
}

func strategiesPrefix(brandSlug string) string {
	if brandSlug == "" {
		brandSlug = "unnamed"
	}
	return fmt.Sprintf("brands/%s/strategies", brandSlug)
}

// Save writes rec and returns the key it was stored under.
func (a *Archive) Save(ctx context.Context, brandSlug string, rec StrategyRecord) (string, error) {
	key := StrategyKey(brandSlug, rec.JobID)
	err := a.client.PutNode(ctx, key, NodeRequest{
		Value:      rec,
		MemoryType: "semantic",
		Salience:   0.6,
		Source:     "brandgest:" + rec.JobID,
	})
	if err != nil {
		return "", eris.Wrapf(err, "archive strategy %s", rec.JobID)
	}
	return key, nil
}

// List returns up to limit archived strategies for a brand.
func (a *Archive) List(ctx context.Context, brandSlug string, limit int) ([]StrategyRecord, error) {
	nodes, err := a.client.ListChildren(ctx, strategiesPrefix(brandSlug), limit)
	if err != nil {
		return nil, err
	}
	out := make([]StrategyRecord, 0, len(nodes))
	for _, n := range nodes {
		var rec StrategyRecord
		if err := json.Unmarshal(n.Value, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes one archived strategy.
func (a *Archive) Delete(ctx context.Context, brandSlug, jobID string) error {
	return a.client.DeleteNode(ctx, StrategyKey(brandSlug, jobID), false)
}
