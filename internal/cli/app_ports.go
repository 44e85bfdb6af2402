package cli

import "github.com/alexanderramin/tierboard/internal/app"

func (a *App) dashboardUseCase() app.DashboardUseCase {
	if a.LoadDashboard != nil {
		return a.LoadDashboard
	}
	return a.Dashboard
}

func (a *App) setProgressUseCase() app.SetProgressUseCase {
	if a.SetProgress != nil {
		return a.SetProgress
	}
	return a.Progress
}

func (a *App) createItemUseCase() app.CreateItemUseCase {
	if a.CreateItem != nil {
		return a.CreateItem
	}
	return a.Items
}
