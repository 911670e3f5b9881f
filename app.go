// Package rusteroids is a small engine harness around the dynamic
// render-object subsystem in render/: an App holds typed resources and
// per-stage systems, modules install both, and Run drives the frame loop
// on a single render thread.
package rusteroids

import (
	"fmt"
	"reflect"
	"runtime"
)

// Module installs resources and systems into the app at build time.
type Module interface {
	Install(app *App)
}

// systemFn is any func whose parameters are pointers to registered
// resources (or *App). Resolved by reflection on every call.
type systemFn any

type Stage struct {
	Name string
}

var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	PreRender  = Stage{Name: "PreRender"}
	Render     = Stage{Name: "Render"}
	Finale     = Stage{Name: "Finale"}
)

func defaultStages() []Stage {
	return []Stage{Prelude, PreUpdate, Update, PostUpdate, PreRender, Render, Finale}
}

type App struct {
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
	quit      bool
}

// AddResources registers each resource (a pointer to a struct) for system
// injection. A duplicate resource type is a programming error.
func (app *App) AddResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// UseSystem schedules a system in a stage. Systems in the same stage run
// in registration order.
func (app *App) UseSystem(system systemFn, stage Stage) *App {
	if _, ok := app.systems[stage.Name]; !ok {
		panic(fmt.Sprintf("Stage %v doesn't exist", stage.Name))
	}
	app.systems[stage.Name] = append(app.systems[stage.Name], system)
	return app
}

// Quit makes Run return after the current frame.
func (app *App) Quit() {
	app.quit = true
}

// RunFrame executes every stage's systems once, in stage order.
func (app *App) RunFrame() {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
	}
}

// Run loops RunFrame until some system calls Quit.
func (app *App) Run() {
	for !app.quit {
		app.RunFrame()
	}
}

var typeOfApp = reflect.TypeOf(App{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())
	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		underlyingType := argType.Elem()

		if underlyingType == typeOfApp {
			args[i] = reflect.ValueOf(app)
		} else if resource, ok := app.resources[underlyingType]; ok {
			args[i] = reflect.ValueOf(resource)
		} else {
			panic(fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(argType),
			))
		}
	}
	systemValue.Call(args)
}
