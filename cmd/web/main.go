// @title           EventHire API
// @version         1.0
// @description     Marketplace API connecting event organizers with hospitality professionals.
// @contact.name    EventHire
// @contact.email   support@eventhire.local
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:4000
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

package main

import "eventhire_backend/internal/app"

func main() {
	app.Run()
}
