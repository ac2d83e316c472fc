// @title           RFE Ready API
// @version         1.0
// @description     Asynchronous RFE notice analysis, knowledge retrieval and response drafting.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package utils

//run redis
//docker run -p 6379:6379 -d redis

//run qdrant
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
