package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sentinel-cctv/be/models"
	"sentinel-cctv/be/notify"
	"sentinel-cctv/be/store"
	"sentinel-cctv/be/utils"
)

func userResource(s store.Store, passwordMode string, log *zap.Logger) *resource[models.User, models.UserInsert, models.UserPatch] {
	return &resource[models.User, models.UserInsert, models.UserPatch]{
		kind:   "User",
		schema: userSchema,
		log:    log,
		list:   listAll(s.ListUsers),
		get:    s.GetUser,
		create: func(ctx context.Context, in models.UserInsert) (*models.User, error) {
			hashed, err := utils.HashPassword(passwordMode, in.Password)
			if err != nil {
				return nil, err
			}
			in.Password = hashed
			return s.CreateUser(ctx, in)
		},
		update: func(ctx context.Context, id uint, p models.UserPatch) (*models.User, error) {
			if p.Password != nil {
				hashed, err := utils.HashPassword(passwordMode, *p.Password)
				if err != nil {
					return nil, err
				}
				p.Password = &hashed
			}
			return s.UpdateUser(ctx, id, p)
		},
		remove: s.DeleteUser,
	}
}

func zoneResource(s store.Store, log *zap.Logger) *resource[models.Zone, models.ZoneInsert, models.ZonePatch] {
	return &resource[models.Zone, models.ZoneInsert, models.ZonePatch]{
		kind:   "Zone",
		schema: zoneSchema,
		log:    log,
		list:   listAll(s.ListZones),
		get:    s.GetZone,
		create: s.CreateZone,
		update: s.UpdateZone,
		remove: s.DeleteZone,
	}
}

func alertResource(s store.Store, n *notifier, log *zap.Logger) *resource[models.Alert, models.AlertInsert, models.AlertPatch] {
	return &resource[models.Alert, models.AlertInsert, models.AlertPatch]{
		kind:   "Alert",
		schema: alertSchema,
		log:    log,
		list: func(c *gin.Context) ([]models.Alert, error) {
			from, err := queryTime(c, "from", false)
			if err != nil {
				return nil, err
			}
			to, err := queryTime(c, "to", true)
			if err != nil {
				return nil, err
			}
			return s.ListAlerts(c.Request.Context(), models.AlertFilter{
				From:     from,
				To:       to,
				Status:   models.AlertStatus(c.Query("status")),
				Priority: models.AlertPriority(c.Query("priority")),
			})
		},
		get:         s.GetAlert,
		create:      s.CreateAlert,
		update:      s.UpdateAlert,
		remove:      s.DeleteAlert,
		afterCreate: n.alertCreated,
		afterUpdate: func(ctx context.Context, before, after *models.Alert) {
			n.update(notify.UpdateAlerts, after)
		},
	}
}

func employeeResource(s store.Store, n *notifier, log *zap.Logger) *resource[models.Employee, models.EmployeeInsert, models.EmployeePatch] {
	return &resource[models.Employee, models.EmployeeInsert, models.EmployeePatch]{
		kind:   "Employee",
		schema: employeeSchema,
		log:    log,
		list: func(c *gin.Context) ([]models.Employee, error) {
			date, err := queryDate(c, "date")
			if err != nil {
				return nil, err
			}
			return s.ListEmployees(c.Request.Context(), date)
		},
		get:    s.GetEmployee,
		create: s.CreateEmployee,
		update: s.UpdateEmployee,
		remove: s.DeleteEmployee,
		afterCreate: func(ctx context.Context, e *models.Employee) {
			n.employeeCreated(ctx, e)
			n.update(notify.UpdateEmployees, e)
		},
		afterUpdate: func(ctx context.Context, before, after *models.Employee) {
			n.update(notify.UpdateEmployees, after)
		},
	}
}

func subscriptionPlanResource(s store.Store, log *zap.Logger) *resource[models.SubscriptionPlan, models.SubscriptionPlanInsert, models.SubscriptionPlanPatch] {
	return &resource[models.SubscriptionPlan, models.SubscriptionPlanInsert, models.SubscriptionPlanPatch]{
		kind:   "Subscription plan",
		schema: subscriptionPlanSchema,
		log:    log,
		list:   listAll(s.ListSubscriptionPlans),
		get:    s.GetSubscriptionPlan,
		create: s.CreateSubscriptionPlan,
		update: s.UpdateSubscriptionPlan,
		remove: s.DeleteSubscriptionPlan,
	}
}

func demoRequestResource(s store.Store, log *zap.Logger) *resource[models.DemoRequest, models.DemoRequestInsert, models.DemoRequestPatch] {
	return &resource[models.DemoRequest, models.DemoRequestInsert, models.DemoRequestPatch]{
		kind:   "Demo request",
		schema: demoRequestSchema,
		log:    log,
		list:   listAll(s.ListDemoRequests),
		get:    s.GetDemoRequest,
		create: s.CreateDemoRequest,
		update: s.UpdateDemoRequest,
		remove: s.DeleteDemoRequest,
	}
}

func searchQueryResource(s store.Store, log *zap.Logger) *resource[models.SearchQuery, models.SearchQueryInsert, models.SearchQueryPatch] {
	return &resource[models.SearchQuery, models.SearchQueryInsert, models.SearchQueryPatch]{
		kind:   "Search query",
		schema: searchQuerySchema,
		log:    log,
		list:   listAll(s.ListSearchQueries),
		get:    s.GetSearchQuery,
		create: s.CreateSearchQuery,
		update: s.UpdateSearchQuery,
		remove: s.DeleteSearchQuery,
	}
}

func recordingResource(s store.Store, log *zap.Logger) *resource[models.Recording, models.RecordingInsert, models.RecordingPatch] {
	return &resource[models.Recording, models.RecordingInsert, models.RecordingPatch]{
		kind:   "Recording",
		schema: recordingSchema,
		log:    log,
		list: func(c *gin.Context) ([]models.Recording, error) {
			cameraID, err := queryUint(c, "cameraId")
			if err != nil {
				return nil, err
			}
			from, err := queryTime(c, "from", false)
			if err != nil {
				return nil, err
			}
			to, err := queryTime(c, "to", true)
			if err != nil {
				return nil, err
			}
			hasMotion, err := queryBool(c, "hasMotion")
			if err != nil {
				return nil, err
			}
			return s.ListRecordings(c.Request.Context(), models.RecordingFilter{
				CameraID:  cameraID,
				From:      from,
				To:        to,
				Quality:   models.RecordingQuality(c.Query("quality")),
				HasMotion: hasMotion,
			})
		},
		get:    s.GetRecording,
		create: s.CreateRecording,
		update: s.UpdateRecording,
		remove: s.DeleteRecording,
	}
}
