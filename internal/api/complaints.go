package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/besofuls/EVTrade/internal/models"
)

// GetComplaints lists complaints, optionally filtered by status (staff
// view). 204 yields an empty slice.
func (c *Client) GetComplaints(ctx context.Context, status string) ([]models.Complaint, error) {
	var query url.Values
	if status != "" {
		query = url.Values{}
		query.Set("status", status)
	}

	var raw json.RawMessage
	err := c.getJSON(ctx, "get_complaints", "/complaints", query, true,
		"could not load complaints", &raw)
	if err != nil {
		return nil, err
	}
	return models.DecodeList[models.Complaint](raw), nil
}

// GetMyComplaints lists the complaints filed by the current user. The
// backend has no dedicated endpoint, so the full list is filtered locally.
func (c *Client) GetMyComplaints(ctx context.Context) ([]models.Complaint, error) {
	user := c.session.User()
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	all, err := c.GetComplaints(ctx, "")
	if err != nil {
		return nil, err
	}
	mine := make([]models.Complaint, 0, len(all))
	for _, complaint := range all {
		if complaint.User != nil && complaint.User.UserID == user.UserID {
			mine = append(mine, complaint)
		}
	}
	return mine, nil
}

// CreateComplaint files a complaint against a listing. The user ID comes
// from the stored session.
func (c *Client) CreateComplaint(ctx context.Context, listingID int64, content string) (*models.Complaint, error) {
	if c.session.Token() == "" {
		return nil, ErrNotAuthenticated
	}
	user := c.session.User()
	if user == nil {
		return nil, fmt.Errorf("could not determine the current user, please sign in again")
	}

	payload := models.CreateComplaintRequest{
		UserID:    user.UserID,
		ListingID: listingID,
		Content:   content,
	}

	var complaint models.Complaint
	err := c.sendJSON(ctx, "create_complaint", http.MethodPost, "/complaints", nil, &payload, true,
		"could not file complaint", &complaint)
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

// ResolveComplaint transitions a complaint to Resolved or Rejected (staff
// only).
func (c *Client) ResolveComplaint(ctx context.Context, complaintID int64, status string) (*models.Complaint, error) {
	payload := map[string]string{"status": status}

	var complaint models.Complaint
	err := c.sendJSON(ctx, "resolve_complaint", http.MethodPut,
		fmt.Sprintf("/complaints/%d/resolve", complaintID), nil, payload, true,
		"could not update complaint status", &complaint)
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}
