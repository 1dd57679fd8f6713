package ads

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/ubuntu/decorate"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// MaxImageSize is the largest accepted advertisement image.
const MaxImageSize = 5 << 20

// Submission is the advertiser-supplied form. Field order is validation order.
type Submission struct {
	BusinessName    string `json:"businessName" validate:"required"`
	ContactEmail    string `json:"contactEmail" validate:"required"`
	TargetURL       string `json:"targetUrl" validate:"required"`
	AdDescription   string `json:"adDescription" validate:"required"`
	StartDate       string `json:"startDate" validate:"required"`
	EndDate         string `json:"endDate" validate:"required"`
	ContactPhone    string `json:"contactPhone,omitempty"`
	BusinessWebsite string `json:"businessWebsite,omitempty"`
	DailyBudget     string `json:"dailyBudget,omitempty"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`
}

// Image is an uploaded advertisement image.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SubmitResult reports a created submission.
type SubmitResult struct {
	RecordID      string          `json:"recordId"`
	Status        models.AdStatus `json:"status"`
	ImageAttached bool            `json:"imageAttached"`
}

// ValidationError rejects a submission before anything is written.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return e.Field + ": " + e.Message
}

// IsValidationError reports whether err is a *ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}

	return nil, false
}

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")

		return name
	})
}

// Validate checks s and img and returns the first failure.
func (s *Service) Validate(sub Submission, img *Image) *ValidationError {
	sub = sub.trimmed()

	if err := validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0].Field()

			return &ValidationError{Field: field, Message: "Missing required field: " + field}
		}

		return &ValidationError{Message: err.Error()}
	}

	if img == nil || len(img.Data) == 0 {
		return &ValidationError{Field: "adImage", Message: "Advertisement image is required"}
	}

	if !isImage(img) {
		return &ValidationError{Field: "adImage", Message: "Only image files (JPG, PNG, WebP) are allowed."}
	}

	if len(img.Data) > MaxImageSize {
		return &ValidationError{Field: "adImage", Message: "File size too large. Maximum size is 5MB."}
	}

	if validate.Var(sub.ContactEmail, "email") != nil {
		return &ValidationError{Field: "contactEmail", Message: "Invalid email address format"}
	}

	if validate.Var(sub.TargetURL, "url") != nil {
		return &ValidationError{Field: "targetUrl", Message: "Invalid target URL format"}
	}

	start, err := time.Parse(config.DateLayout, sub.StartDate)
	if err != nil {
		return &ValidationError{Field: "startDate", Message: "Start date must be YYYY-MM-DD"}
	}

	end, err := time.Parse(config.DateLayout, sub.EndDate)
	if err != nil {
		return &ValidationError{Field: "endDate", Message: "End date must be YYYY-MM-DD"}
	}

	if !end.After(start) {
		return &ValidationError{Field: "endDate", Message: "End date must be after start date"}
	}

	if start.Before(s.today()) {
		return &ValidationError{Field: "startDate", Message: "Start date cannot be in the past"}
	}

	return nil
}

func (sub Submission) trimmed() Submission {
	sub.BusinessName = strings.TrimSpace(sub.BusinessName)
	sub.ContactEmail = strings.TrimSpace(sub.ContactEmail)
	sub.TargetURL = strings.TrimSpace(sub.TargetURL)
	sub.AdDescription = strings.TrimSpace(sub.AdDescription)
	sub.StartDate = strings.TrimSpace(sub.StartDate)
	sub.EndDate = strings.TrimSpace(sub.EndDate)

	return sub
}

// isImage requires both the sniffed and the declared type to be image/*.
func isImage(img *Image) bool {
	sniffed := mimetype.Detect(img.Data)
	if !strings.HasPrefix(sniffed.String(), "image/") {
		return false
	}

	return img.ContentType == "" || strings.HasPrefix(strings.ToLower(img.ContentType), "image/")
}

// Submit validates and stores a new submission as Pending Review. The image is attached
// afterwards; a failed attachment leaves the record in place and is reported in the result.
func (s *Service) Submit(ctx context.Context, sub Submission, img *Image) (res *SubmitResult, err error) {
	if verr := s.Validate(sub, img); verr != nil {
		return nil, verr
	}

	sub = sub.trimmed()

	defer decorate.OnError(&err, "could not submit advertisement for %s", sub.BusinessName)

	now := s.now().In(s.opts.Location)

	rec, err := s.store.Create(ctx, s.opts.Table, airtable.Fields{
		ColTitle:           fmt.Sprintf("%s - %d/%d/%d", sub.BusinessName, int(now.Month()), now.Day(), now.Year()),
		ColAdvertiserName:  sub.BusinessName,
		ColEmail:           sub.ContactEmail,
		ColPhone:           sub.ContactPhone,
		ColBusinessWebsite: sub.BusinessWebsite,
		ColTargetURL:       sub.TargetURL,
		ColDescription:     sub.AdDescription,
		ColStatus:          string(models.AdStatusPendingReview),
		ColStartDate:       sub.StartDate,
		ColEndDate:         sub.EndDate,
		ColSubmissionDate:  now.Format(config.DateLayout),
		ColDailyBudget:     sub.DailyBudget,
		ColPriority:        DefaultPriority,
		ColClickCount:      0,
		ColAdminNotes:      sub.AdditionalNotes,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("advertisement submitted", "id", rec.ID, "business", sub.BusinessName)

	res = &SubmitResult{RecordID: rec.ID, Status: models.AdStatusPendingReview}

	if _, aerr := s.store.Update(ctx, s.opts.Table, rec.ID, airtable.Fields{
		ColImage: []airtable.Attachment{{URL: dataURL(img), Filename: img.Filename}},
	}); aerr != nil {
		s.logger.Warn("image upload failed, record was created", "id", rec.ID, "error", aerr)

		return res, nil
	}

	res.ImageAttached = true

	return res, nil
}

func dataURL(img *Image) string {
	ct := img.ContentType
	if ct == "" {
		ct = mimetype.Detect(img.Data).String()
	}

	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
