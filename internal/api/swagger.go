package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"chantier-rapports/docs"
)

// SetupSwagger configure les routes Swagger
func SetupSwagger(router *gin.Engine, environment string) {
	if environment == "development" || environment == "test" {
		docs.SwaggerInfo.Schemes = []string{"http", "https"}
	} else {
		docs.SwaggerInfo.Schemes = []string{"https"}
	}
	docs.SwaggerInfo.Version = Version

	router.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("doc.json"),
		ginSwagger.DocExpansion("list"),
		ginSwagger.DeepLinking(true),
		ginSwagger.DefaultModelsExpandDepth(1),
		ginSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
	))
}
