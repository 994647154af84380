// Project Structure Overview
/*
edumarket-backend/
├── cmd/
│   └── server/
│       └── main.go
├── internal/
│   ├── config/
│   │   ├── config.go
│   │   └── database.go
│   ├── models/
│   │   ├── user.go
│   │   ├── resource.go
│   │   ├── purchase.go
│   │   ├── sale.go
│   │   ├── ledger.go
│   │   ├── seller.go
│   │   ├── withdrawal.go
│   │   ├── admin.go
│   │   └── common.go
│   ├── handlers/
│   │   ├── purchase.go
│   │   ├── webhook.go
│   │   ├── license.go
│   │   ├── seller.go
│   │   ├── withdrawal.go
│   │   ├── admin.go
│   │   └── errors.go
│   ├── services/
│   │   ├── purchase_service.go
│   │   ├── reconcile_service.go
│   │   ├── royalty_service.go
│   │   ├── ledger_service.go
│   │   ├── tier_service.go
│   │   ├── license_service.go
│   │   ├── withdrawal_service.go
│   │   ├── settings_service.go
│   │   └── notification_service.go
│   ├── payment/
│   │   ├── provider.go
│   │   └── stripe.go
│   ├── middleware/
│   │   ├── auth.go
│   │   ├── cors.go
│   │   ├── logging.go
│   │   └── rate_limit.go
│   ├── database/
│   │   └── connection.go
│   ├── router/
│   │   └── router.go
│   └── utils/
│       ├── response.go
│       ├── validator.go
│       ├── pagination.go
│       ├── crypto.go
│       ├── money.go
│       └── jwt.go
├── go.mod
└── README.md
*/
package edumarket
