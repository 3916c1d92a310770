// @title Recruit Pipeline API
// @version 1.0
// @description 测评评估与候选人排名服务：作答、自动评分、监考可信度、技能差距与排行榜。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import "recruit_backend/cmd"

func main() {
	cmd.Execute()
}
