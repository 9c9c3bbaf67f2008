package handlers

import (
	"fmt"
	"math"
	"regexp"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/conf"
	"github.com/Oudwins/zog/zconst"

	"sentinel-cctv/be/models"
	"sentinel-cctv/be/notify"
)

// Insert schemas. Shape keys name the Go fields; request keys come from the
// zog struct tags of the insert types.

// JSON values of the wrong type are rejected rather than coerced, so 123
// never becomes "123" and 7.5 never becomes 7.
func coerceString(data any) (any, error) {
	if v, ok := data.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected a string, got %T", data)
}

func coerceInt(data any) (any, error) {
	switch v := data.(type) {
	case bool:
		return nil, fmt.Errorf("expected an integer, got %T", data)
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("expected an integer, got %v", v)
		}
	}
	return conf.DefaultCoercers.Int(data)
}

func stringField() *z.StringSchema[string] {
	return z.String(z.WithCoercer(coerceString))
}

func intField() *z.NumberSchema[int] {
	return z.Int(z.WithCoercer(coerceInt))
}

// enumField accepts the strings valid reports true for.
func enumField[T ~string](valid func(T) bool) *z.StringSchema[string] {
	return stringField().TestFunc(func(v *string, _ z.Ctx) bool {
		return valid(T(*v))
	}, z.IssueCode(zconst.IssueCodeOneOf), z.Message("is not an allowed value"))
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var (
	cameraStatuses  = []string{"active", "maintenance", "offline"}
	zoneTypes       = []string{"entrance", "office", "restricted", "common"}
	alertTypes      = []string{"intrusion", "motion", "loitering", "vehicle"}
	alertPriorities = []string{"high", "medium", "low"}
	alertStatuses   = []string{"pending", "resolved", "dismissed"}
	employeeStatus  = []string{"active", "inactive"}
	qualities       = []string{"low", "medium", "high"}
)

var userSchema = z.Struct(z.Shape{
	"Username": stringField().Required().Min(1),
	"Email":    stringField().Required().Email(),
	"Password": stringField().Required().Min(1),
	"Role":     z.Ptr(enumField(models.Role.Valid)),
})

var cameraSchema = z.Struct(z.Shape{
	"Name":         stringField().Required().Min(1),
	"Location":     stringField().Required().Min(1),
	"IP":           stringField().Required().Min(1),
	"StreamURL":    z.Ptr(stringField()),
	"Status":       z.Ptr(stringField().OneOf(cameraStatuses)),
	"AssignedZone": z.Ptr(stringField()),
	"Sensitivity":  z.Ptr(intField().GTE(1).LTE(10)),
})

var zoneSchema = z.Struct(z.Shape{
	"Name":        stringField().Required().Min(1),
	"Type":        stringField().Required().OneOf(zoneTypes),
	"Description": z.Ptr(stringField()),
})

var alertSchema = z.Struct(z.Shape{
	"Type":        stringField().Required().OneOf(alertTypes),
	"Description": stringField().Required().Min(1),
	"CameraID":    intField().Required().GTE(1),
	"Priority":    z.Ptr(stringField().OneOf(alertPriorities)),
	"Status":      z.Ptr(stringField().OneOf(alertStatuses)),
})

var employeeSchema = z.Struct(z.Shape{
	"Name":       stringField().Required().Min(1),
	"EmployeeID": stringField().Required().Min(1),
	"Department": stringField().Required().Min(1),
	"CheckIn":    z.Ptr(stringField()),
	"CheckOut":   z.Ptr(stringField()),
	"LastSeen":   z.Ptr(stringField()),
	"Status":     z.Ptr(stringField().OneOf(employeeStatus)),
	"Date":       z.Ptr(stringField().Match(datePattern)),
})

var subscriptionPlanSchema = z.Struct(z.Shape{
	"Name":         stringField().Required().Min(1),
	"MonthlyPrice": intField().Required().GTE(0),
	"YearlyPrice":  intField().Required().GTE(0),
	"MaxCameras":   intField().Required().GTE(1),
	"Features":     z.Slice(stringField()),
	"IsPopular":    z.Ptr(z.Bool()),
	"IsActive":     z.Ptr(z.Bool()),
})

var demoRequestSchema = z.Struct(z.Shape{
	"Name":    stringField().Required().Min(1),
	"Email":   stringField().Required().Email(),
	"Company": stringField().Required().Min(1),
	"Phone":   z.Ptr(stringField()),
	"Message": z.Ptr(stringField()),
})

var searchQuerySchema = z.Struct(z.Shape{
	"Query":    stringField().Required().Min(1),
	"Response": z.Ptr(stringField()),
	"UserID":   z.Ptr(intField().GTE(1)),
})

var recordingSchema = z.Struct(z.Shape{
	"CameraID":      intField().Required().GTE(1),
	"StartTime":     z.Ptr(z.Time()),
	"Duration":      intField().GTE(0),
	"FileSize":      intField().GTE(0),
	"Quality":       z.Ptr(stringField().OneOf(qualities)),
	"HasMotion":     z.Ptr(z.Bool()),
	"ThumbnailPath": z.Ptr(stringField()),
	"FilePath":      stringField().Required().Min(1),
})

type loginRequest struct {
	Email    string `json:"email" zog:"email"`
	Password string `json:"password" zog:"password"`
}

var loginSchema = z.Struct(z.Shape{
	"Email":    stringField().Required().Email(),
	"Password": stringField().Required().Min(1),
})

type chatRequest struct {
	Message string `json:"message" zog:"message"`
}

var chatSchema = z.Struct(z.Shape{
	"Message": stringField().Required().Min(1),
})

type broadcastRequest struct {
	Title    string  `json:"title" zog:"title"`
	Message  string  `json:"message" zog:"message"`
	Priority *string `json:"priority" zog:"priority"`
}

var broadcastSchema = z.Struct(z.Shape{
	"Title":    stringField().Required().Min(1),
	"Message":  stringField().Required().Min(1),
	"Priority": z.Ptr(enumField(notify.Priority.Valid)),
})
