package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dealerdeskhq/dealerdesk-backend/api/controllers"
	"github.com/dealerdeskhq/dealerdesk-backend/api/middleware"
	auctionsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/auctions"
	auditsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/audit"
	authsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/auth"
	clientsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/clients"
	dashboardsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/dashboard"
	dealershipsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/dealership"
	documentsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/documents"
	expensesvc "github.com/dealerdeskhq/dealerdesk-backend/internal/expenses"
	insurancesvc "github.com/dealerdeskhq/dealerdesk-backend/internal/insurance"
	notificationsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/notifications"
	paymentsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/payments"
	payrollsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/payroll"
	permissionsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/permissions"
	reportsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/reports"
	repossessionsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/repossessions"
	vehiclesvc "github.com/dealerdeskhq/dealerdesk-backend/internal/vehicles"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/auth/session"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/config"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/redis"
)

// Services bundles the domain services the router wires into handlers.
type Services struct {
	Auth          authsvc.Service
	Vehicles      vehiclesvc.Service
	Clients       clientsvc.Service
	Payments      paymentsvc.Service
	Auctions      auctionsvc.Service
	Insurance     insurancesvc.Service
	Repossessions repossessionsvc.Service
	Expenses      expensesvc.Service
	Documents     documentsvc.Service
	Payroll       payrollsvc.Service
	Notifications notificationsvc.Service
	Audit         auditsvc.Service
	Permissions   permissionsvc.Service
	Dashboard     dashboardsvc.Service
	Dealership    dealershipsvc.Service
	Reports       reportsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/documents/shared/{token}", controllers.ResolveSharedDocument(svcs.Documents, logg))
		r.Post("/documents/shared/{token}", controllers.ResolveSharedDocument(svcs.Documents, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
			r.Get("/me", controllers.AuthMe(svcs.Auth, logg))
			r.Post("/change-password", controllers.AuthChangePassword(svcs.Auth, logg))
			r.With(
				middleware.RequireRole(string(enums.RoleAdmin), logg),
				middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.Audit(svcs.Audit, logg))

		perm := func(module enums.Module) func(http.Handler) http.Handler {
			return middleware.RequirePermission(module, enums.AccessReadOnly, svcs.Permissions, logg)
		}
		export := func(module enums.Module) func(http.Handler) http.Handler {
			return middleware.RequireExport(module, svcs.Permissions, logg)
		}

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(perm(enums.ModuleDashboard))
			r.Get("/overview", controllers.DashboardOverview(svcs.Dashboard, logg))
			r.Get("/financial-summary", controllers.DashboardFinancialSummary(svcs.Dashboard, logg))
			r.Get("/sales-metrics", controllers.DashboardSalesMetrics(svcs.Dashboard, logg))
			r.Get("/auction-metrics", controllers.DashboardAuctionMetrics(svcs.Dashboard, logg))
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.With(export(enums.ModuleVehicles)).Get("/export/csv", controllers.ExportVehiclesCSV(svcs.Vehicles, logg))
			r.With(export(enums.ModuleVehicles)).Get("/export/pdf", controllers.ExportVehiclesPDF(svcs.Vehicles, logg))

			r.Group(func(r chi.Router) {
				r.Use(perm(enums.ModuleVehicles))
				r.Post("/", controllers.CreateVehicle(svcs.Vehicles, logg))
				r.Get("/", controllers.ListVehicles(svcs.Vehicles, logg))
				r.Get("/featured", controllers.ListFeaturedVehicles(svcs.Vehicles, logg))
				r.Route("/{vehicleID}", func(r chi.Router) {
					r.Get("/", controllers.GetVehicle(svcs.Vehicles, logg))
					r.Put("/", controllers.UpdateVehicle(svcs.Vehicles, logg))
					r.Delete("/", controllers.DeleteVehicle(svcs.Vehicles, logg))
					r.Post("/status", controllers.ChangeVehicleStatus(svcs.Vehicles, logg))
					r.Get("/history", controllers.VehicleHistory(svcs.Vehicles, logg))
					r.Post("/photos", controllers.AddVehiclePhoto(svcs.Vehicles, logg))
					r.Get("/photos", controllers.ListVehiclePhotos(svcs.Vehicles, logg))
					r.Post("/photos/{photoID}/primary", controllers.SetPrimaryVehiclePhoto(svcs.Vehicles, logg))
					r.Delete("/photos/{photoID}", controllers.DeleteVehiclePhoto(svcs.Vehicles, logg))
				})
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.With(export(enums.ModuleClients)).Get("/export/csv", controllers.ExportClientsCSV(svcs.Clients, logg))

			r.Group(func(r chi.Router) {
				r.Use(perm(enums.ModuleClients))
				r.Post("/", controllers.CreateClient(svcs.Clients, logg))
				r.Get("/", controllers.ListClients(svcs.Clients, logg))
				r.Route("/{clientID}", func(r chi.Router) {
					r.Get("/", controllers.GetClient(svcs.Clients, logg))
					r.Put("/", controllers.UpdateClient(svcs.Clients, logg))
					r.Post("/blacklist", controllers.BlacklistClient(svcs.Clients, logg))
					r.Delete("/blacklist", controllers.UnblacklistClient(svcs.Clients, logg))
					r.Post("/agreements", controllers.CreateClientAgreement(svcs.Clients, logg))
					r.Get("/agreements", controllers.ListClientAgreements(svcs.Clients, logg))
					r.Get("/agreements/{agreementID}", controllers.GetClientAgreement(svcs.Clients, logg))
				})
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(export(enums.ModulePayments)).Get("/export/csv", controllers.ExportPaymentsCSV(svcs.Payments, logg))
			r.With(export(enums.ModulePayments)).Get("/export/pdf", controllers.ExportPaymentsPDF(svcs.Payments, logg))

			r.Group(func(r chi.Router) {
				r.Use(perm(enums.ModulePayments))
				r.Post("/", controllers.RecordPayment(svcs.Payments, logg))
				r.Get("/", controllers.ListPayments(svcs.Payments, logg))
				r.Get("/summary", controllers.PaymentsSummary(svcs.Payments, logg))
				r.Get("/{paymentID}", controllers.GetPayment(svcs.Payments, logg))
				r.Get("/{paymentID}/receipt", controllers.PaymentReceiptPDF(svcs.Payments, logg))
				r.Post("/installment-plans", controllers.CreateInstallmentPlan(svcs.Payments, logg))
				r.Get("/agreements/{agreementID}/plan", controllers.GetAgreementPlan(svcs.Payments, logg))
				r.Post("/schedules/{scheduleID}/reminders", controllers.CreatePaymentReminder(svcs.Payments, logg))
				r.Get("/schedules/{scheduleID}/reminders", controllers.ListPaymentReminders(svcs.Payments, logg))
				r.Put("/reminders/{reminderID}", controllers.UpdatePaymentReminder(svcs.Payments, logg))
			})
		})

		r.Route("/auctions", func(r chi.Router) {
			r.Use(perm(enums.ModuleAuctions))
			r.Post("/", controllers.CreateAuction(svcs.Auctions, logg))
			r.Get("/", controllers.ListAuctions(svcs.Auctions, logg))
			r.Get("/watchlist", controllers.MyWatchlist(svcs.Auctions, logg))
			r.Route("/{auctionID}", func(r chi.Router) {
				r.Get("/", controllers.GetAuction(svcs.Auctions, logg))
				r.Put("/", controllers.UpdateAuction(svcs.Auctions, logg))
				r.Post("/schedule", controllers.ScheduleAuction(svcs.Auctions, logg))
				r.Post("/activate", controllers.ActivateAuction(svcs.Auctions, logg))
				r.Post("/cancel", controllers.CancelAuction(svcs.Auctions, logg))
				r.Post("/participants", controllers.RegisterAuctionParticipant(svcs.Auctions, logg))
				r.Get("/participants", controllers.ListAuctionParticipants(svcs.Auctions, logg))
				r.Post("/participants/{userID}/approve", controllers.ApproveAuctionParticipant(svcs.Auctions, logg))
				r.Post("/bids", controllers.PlaceBid(svcs.Auctions, logg))
				r.Get("/bids", controllers.ListBids(svcs.Auctions, logg))
				r.Post("/buy-now", controllers.BuyNow(svcs.Auctions, logg))
				r.Post("/finalize", controllers.FinalizeAuction(svcs.Auctions, logg))
				r.Post("/watch", controllers.WatchAuction(svcs.Auctions, logg))
				r.Delete("/watch", controllers.UnwatchAuction(svcs.Auctions, logg))
				r.Get("/result", controllers.GetAuctionResult(svcs.Auctions, logg))
				r.Put("/result", controllers.UpdateAuctionResult(svcs.Auctions, logg))
			})
		})

		r.Route("/insurance", func(r chi.Router) {
			r.Use(perm(enums.ModuleInsurance))
			r.Route("/providers", func(r chi.Router) {
				r.Post("/", controllers.CreateInsuranceProvider(svcs.Insurance, logg))
				r.Get("/", controllers.ListInsuranceProviders(svcs.Insurance, logg))
				r.Get("/{providerID}", controllers.GetInsuranceProvider(svcs.Insurance, logg))
				r.Put("/{providerID}", controllers.UpdateInsuranceProvider(svcs.Insurance, logg))
			})
			r.Route("/policies", func(r chi.Router) {
				r.Post("/", controllers.CreatePolicy(svcs.Insurance, logg))
				r.Get("/", controllers.ListPolicies(svcs.Insurance, logg))
				r.Get("/expiring", controllers.ExpiringPolicies(svcs.Insurance, logg))
				r.Get("/{policyID}", controllers.GetPolicy(svcs.Insurance, logg))
				r.Post("/{policyID}/renew", controllers.RenewPolicy(svcs.Insurance, logg))
				r.Post("/{policyID}/cancel", controllers.CancelPolicy(svcs.Insurance, logg))
			})
			r.Route("/claims", func(r chi.Router) {
				r.Post("/", controllers.FileClaim(svcs.Insurance, logg))
				r.Get("/", controllers.ListClaims(svcs.Insurance, logg))
				r.Get("/{claimID}", controllers.GetClaim(svcs.Insurance, logg))
				r.Post("/{claimID}/review", controllers.ReviewClaim(svcs.Insurance, logg))
				r.Post("/{claimID}/approve", controllers.ApproveClaim(svcs.Insurance, logg))
				r.Post("/{claimID}/reject", controllers.RejectClaim(svcs.Insurance, logg))
				r.Post("/{claimID}/settle", controllers.SettleClaim(svcs.Insurance, logg))
			})
		})

		r.Route("/repossessions", func(r chi.Router) {
			r.Use(perm(enums.ModuleRepossessions))
			r.Post("/", controllers.OpenRepossession(svcs.Repossessions, logg))
			r.Get("/", controllers.ListRepossessions(svcs.Repossessions, logg))
			r.Route("/{caseID}", func(r chi.Router) {
				r.Get("/", controllers.GetRepossession(svcs.Repossessions, logg))
				r.Put("/", controllers.UpdateRepossession(svcs.Repossessions, logg))
				r.Post("/transition", controllers.TransitionRepossession(svcs.Repossessions, logg))
				r.Post("/complete", controllers.CompleteRepossession(svcs.Repossessions, logg))
				r.Get("/history", controllers.RepossessionHistory(svcs.Repossessions, logg))
				r.Get("/costs", controllers.RepossessionCostSummary(svcs.Repossessions, logg))
				r.Post("/notices", controllers.SendRepossessionNotice(svcs.Repossessions, logg))
				r.Get("/notices", controllers.ListRepossessionNotices(svcs.Repossessions, logg))
				r.Post("/notices/{noticeID}/delivered", controllers.MarkRepossessionNoticeDelivered(svcs.Repossessions, logg))
				r.Post("/contacts", controllers.LogRepossessionContact(svcs.Repossessions, logg))
				r.Get("/contacts", controllers.ListRepossessionContacts(svcs.Repossessions, logg))
				r.Post("/recovery-attempts", controllers.LogRecoveryAttempt(svcs.Repossessions, logg))
				r.Get("/recovery-attempts", controllers.ListRecoveryAttempts(svcs.Repossessions, logg))
				r.Post("/expenses", controllers.AddRepossessionExpense(svcs.Repossessions, logg))
				r.Get("/expenses", controllers.ListRepossessionExpenses(svcs.Repossessions, logg))
				r.Post("/expenses/{expenseID}/pay", controllers.PayRepossessionExpense(svcs.Repossessions, logg))
			})
		})

		r.Route("/expenses", func(r chi.Router) {
			r.With(export(enums.ModuleExpenses)).Get("/export/csv", controllers.ExportExpensesCSV(svcs.Expenses, logg))

			r.Group(func(r chi.Router) {
				r.Use(perm(enums.ModuleExpenses))
				r.Route("/categories", func(r chi.Router) {
					r.Post("/", controllers.CreateExpenseCategory(svcs.Expenses, logg))
					r.Get("/", controllers.ListExpenseCategories(svcs.Expenses, logg))
					r.Put("/{categoryID}", controllers.UpdateExpenseCategory(svcs.Expenses, logg))
					r.Get("/{categoryID}/budget", controllers.ExpenseBudgetStatus(svcs.Expenses, logg))
				})
				r.Route("/reports", func(r chi.Router) {
					r.Post("/", controllers.CreateExpenseReport(svcs.Expenses, logg))
					r.Get("/", controllers.ListExpenseReports(svcs.Expenses, logg))
					r.Get("/{reportID}", controllers.GetExpenseReport(svcs.Expenses, logg))
					r.Post("/{reportID}/expenses/{expenseID}", controllers.AddExpenseToReport(svcs.Expenses, logg))
					r.Delete("/{reportID}/expenses/{expenseID}", controllers.RemoveExpenseFromReport(svcs.Expenses, logg))
					r.Post("/{reportID}/finalize", controllers.FinalizeExpenseReport(svcs.Expenses, logg))
				})
				r.Route("/recurring", func(r chi.Router) {
					r.Post("/", controllers.CreateRecurringExpense(svcs.Expenses, logg))
					r.Get("/", controllers.ListRecurringExpenses(svcs.Expenses, logg))
					r.Put("/{recurringID}", controllers.UpdateRecurringExpense(svcs.Expenses, logg))
				})
				r.Post("/", controllers.CreateExpense(svcs.Expenses, logg))
				r.Get("/", controllers.ListExpenses(svcs.Expenses, logg))
				r.Route("/{expenseID}", func(r chi.Router) {
					r.Get("/", controllers.GetExpense(svcs.Expenses, logg))
					r.Put("/", controllers.UpdateExpense(svcs.Expenses, logg))
					r.Delete("/", controllers.DeleteExpense(svcs.Expenses, logg))
					r.Post("/submit", controllers.SubmitExpense(svcs.Expenses, logg))
					r.Post("/approve", controllers.ApproveExpense(svcs.Expenses, logg))
					r.Post("/reject", controllers.RejectExpense(svcs.Expenses, logg))
					r.Post("/cancel", controllers.CancelExpense(svcs.Expenses, logg))
					r.Post("/pay", controllers.PayExpense(svcs.Expenses, logg))
				})
			})
		})

		r.Route("/documents", func(r chi.Router) {
			r.Use(perm(enums.ModuleDocuments))
			r.Route("/categories", func(r chi.Router) {
				r.Post("/", controllers.CreateDocumentCategory(svcs.Documents, logg))
				r.Get("/", controllers.ListDocumentCategories(svcs.Documents, logg))
				r.Put("/{categoryID}", controllers.UpdateDocumentCategory(svcs.Documents, logg))
			})
			r.Post("/", controllers.CreateDocument(svcs.Documents, logg))
			r.Get("/", controllers.ListDocuments(svcs.Documents, logg))
			r.Get("/expiring", controllers.ExpiringDocuments(svcs.Documents, logg))
			r.Delete("/shares/{shareID}", controllers.RevokeDocumentShare(svcs.Documents, logg))
			r.Route("/{documentID}", func(r chi.Router) {
				r.Get("/", controllers.GetDocument(svcs.Documents, logg))
				r.Put("/", controllers.UpdateDocument(svcs.Documents, logg))
				r.Post("/archive", controllers.ArchiveDocument(svcs.Documents, logg))
				r.Post("/confirm-upload", controllers.ConfirmDocumentUpload(svcs.Documents, logg))
				r.Post("/versions", controllers.UploadDocumentVersion(svcs.Documents, logg))
				r.Get("/versions", controllers.DocumentVersions(svcs.Documents, logg))
				r.Post("/download", controllers.RecordDocumentDownload(svcs.Documents, logg))
				r.Get("/access-log", controllers.DocumentAccessLog(svcs.Documents, logg))
				r.Post("/shares", controllers.CreateDocumentShare(svcs.Documents, logg))
				r.Get("/shares", controllers.ListDocumentShares(svcs.Documents, logg))
			})
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Use(perm(enums.ModulePayroll))
			r.Route("/employees", func(r chi.Router) {
				r.Post("/", controllers.CreateEmployee(svcs.Payroll, logg))
				r.Get("/", controllers.ListEmployees(svcs.Payroll, logg))
				r.Route("/{employeeID}", func(r chi.Router) {
					r.Get("/", controllers.GetEmployee(svcs.Payroll, logg))
					r.Put("/", controllers.UpdateEmployee(svcs.Payroll, logg))
					r.Post("/status", controllers.ChangeEmployeeStatus(svcs.Payroll, logg))
					r.Get("/structures", controllers.ListSalaryStructures(svcs.Payroll, logg))
					r.Get("/deductions", controllers.ListDeductions(svcs.Payroll, logg))
				})
			})
			r.Post("/structures", controllers.CreateSalaryStructure(svcs.Payroll, logg))
			r.Route("/commissions", func(r chi.Router) {
				r.Post("/", controllers.CreateCommission(svcs.Payroll, logg))
				r.Get("/", controllers.ListCommissions(svcs.Payroll, logg))
				r.Post("/{commissionID}/approve", controllers.ApproveCommission(svcs.Payroll, logg))
				r.Post("/{commissionID}/reject", controllers.RejectCommission(svcs.Payroll, logg))
			})
			r.Route("/deductions", func(r chi.Router) {
				r.Post("/", controllers.CreateDeduction(svcs.Payroll, logg))
				r.Put("/{deductionID}", controllers.UpdateDeduction(svcs.Payroll, logg))
			})
			r.Route("/runs", func(r chi.Router) {
				r.Post("/", controllers.CreatePayrollRun(svcs.Payroll, logg))
				r.Get("/", controllers.ListPayrollRuns(svcs.Payroll, logg))
				r.Route("/{runID}", func(r chi.Router) {
					r.Get("/", controllers.GetPayrollRun(svcs.Payroll, logg))
					r.Post("/process", controllers.ProcessPayrollRun(svcs.Payroll, logg))
					r.Post("/approve", controllers.ApprovePayrollRun(svcs.Payroll, logg))
					r.Post("/pay", controllers.MarkPayrollRunPaid(svcs.Payroll, logg))
					r.Post("/cancel", controllers.CancelPayrollRun(svcs.Payroll, logg))
					r.Get("/payslips", controllers.ListPayslips(svcs.Payroll, logg))
				})
			})
			r.Get("/payslips/{payslipID}", controllers.GetPayslip(svcs.Payroll, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(perm(enums.ModuleNotifications))
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
			r.Delete("/{notificationID}", controllers.DismissNotification(svcs.Notifications, logg))
			r.Get("/preferences", controllers.GetNotificationPreferences(svcs.Notifications, logg))
			r.Put("/preferences", controllers.UpdateNotificationPreferences(svcs.Notifications, logg))
		})

		r.Route("/audit", func(r chi.Router) {
			r.Use(perm(enums.ModuleAudit))
			r.Get("/logs", controllers.ListAuditLogs(svcs.Audit, logg))
			r.Get("/login-history", controllers.ListLoginHistory(svcs.Audit, logg))
		})

		r.Route("/permissions", func(r chi.Router) {
			r.Use(perm(enums.ModulePermissions))
			r.Get("/", controllers.PermissionMatrix(svcs.Permissions, logg))
			r.Get("/history", controllers.PermissionHistory(svcs.Permissions, logg))
			r.Post("/seed-defaults", controllers.SeedDefaultPermissions(svcs.Permissions, logg))
			r.Get("/{role}/{module}", controllers.GetPermission(svcs.Permissions, logg))
			r.Put("/{role}/{module}", controllers.UpdatePermission(svcs.Permissions, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.With(export(enums.ModuleReports)).
				Get("/executions/{executionID}/download", controllers.DownloadReportExecution(svcs.Reports, logg))

			r.Group(func(r chi.Router) {
				r.Use(perm(enums.ModuleReports))
				r.Post("/", controllers.CreateReport(svcs.Reports, logg))
				r.Get("/", controllers.ListReports(svcs.Reports, logg))
				r.Route("/{reportID}", func(r chi.Router) {
					r.Get("/", controllers.GetReport(svcs.Reports, logg))
					r.Put("/", controllers.UpdateReport(svcs.Reports, logg))
					r.Delete("/", controllers.DeleteReport(svcs.Reports, logg))
					r.Post("/run", controllers.RunReport(svcs.Reports, logg))
					r.Get("/executions", controllers.ListReportExecutions(svcs.Reports, logg))
				})
			})
		})

		r.Route("/dealership", func(r chi.Router) {
			r.Get("/", controllers.GetDealershipProfile(svcs.Dealership, logg))
			r.With(middleware.RequireRole(string(enums.RoleAdmin), logg)).
				Put("/", controllers.UpdateDealershipProfile(svcs.Dealership, logg))
		})
	})

	return r
}
