package main

import "club-notification-service/app"

func main() {
	app.Run()
}
