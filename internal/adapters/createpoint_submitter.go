package adapters

import (
	"context"

	"ecoleta_backend/internal/createpoint/ports"
	pointssvc "ecoleta_backend/internal/points/service"
	"ecoleta_backend/internal/points/transport"
)

// CreatePointSubmitter registers drafts through the points service,
// satisfying ports.Submitter. Validation errors of the points service are
// returned unchanged so their details reach the client.
type CreatePointSubmitter struct {
	svc *pointssvc.Service
}

// NewCreatePointSubmitter creates a new submitter adapter.
func NewCreatePointSubmitter(svc *pointssvc.Service) *CreatePointSubmitter {
	return &CreatePointSubmitter{svc: svc}
}

// Submit creates the point and returns its ID.
func (a *CreatePointSubmitter) Submit(ctx context.Context, s ports.Submission) (string, error) {
	point, err := a.svc.CreatePoint(ctx, transport.CreatePointRequest{
		Name:      s.Name,
		Email:     s.Email,
		WhatsApp:  s.WhatsApp,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		UF:        s.UF,
		City:      s.City,
		Items:     s.ItemIDs,
	})
	if err != nil {
		return "", err
	}
	return point.ID, nil
}

var _ ports.Submitter = (*CreatePointSubmitter)(nil)
