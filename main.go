package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/payoutpilot/mentorchat/cmd/app"
)

// @contact.name   PayoutPilot Support
// @contact.email  support@payoutpilot.io
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token issued by the identity provider
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
