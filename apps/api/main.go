package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/Kopptechy/student-pickup-live-2025/apps/api/echo"
	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/family"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
	"github.com/Kopptechy/student-pickup-live-2025/core/realtime"
	"github.com/Kopptechy/student-pickup-live-2025/core/student"
	"github.com/Kopptechy/student-pickup-live-2025/core/user"
	emailsvc "github.com/Kopptechy/student-pickup-live-2025/services/email"
	logsvc "github.com/Kopptechy/student-pickup-live-2025/services/logger"
	schedsvc "github.com/Kopptechy/student-pickup-live-2025/services/scheduler"
	"github.com/Kopptechy/student-pickup-live-2025/storage/database"
	"github.com/Kopptechy/student-pickup-live-2025/storage/database/dummy"
	sqlxrepos "github.com/Kopptechy/student-pickup-live-2025/storage/database/sqlx"
)

type repoSet struct {
	pickups  pickup.Repository
	merges   merge.Repository
	students student.Repository
	families family.Repository
	users    user.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage
	repos, closeDB, err := setUpRepos(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = closeDB(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	mergeSvc := merge.NewService(repos.merges)
	registry := realtime.NewRegistry(conf.Display.SendBuffer)
	broadcaster := realtime.NewBroadcaster(registry, mergeSvc, logger)
	pickupSvc := pickup.NewService(repos.pickups, broadcaster)
	studentSvc := student.NewService(repos.students)
	familySvc := family.NewService(repos.families, repos.students)
	userSvc := user.NewService(repos.users, familySvc, repos.students, mailSvc, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// background duties
	sched, err := schedsvc.New(pickupSvc, mergeSvc, broadcaster, logger, conf.Scheduler)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up scheduler: %v", err), err)
	}
	stop := make(chan struct{})
	defer close(stop)
	go sched.Run(stop)
	go broadcaster.RunHeartbeat(conf.Display.HeartbeatPeriod, stop)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     userSvc,
		StudentSvc:  studentSvc,
		FamilySvc:   familySvc,
		PickupSvc:   pickupSvc,
		MergeSvc:    mergeSvc,
		Registry:    registry,
		Broadcaster: broadcaster,
		Validate:    validate,
		Translator:  translator,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpRepos(conf *core.Config) (repoSet, func() error, error) {
	if conf.Database.Engine == "dummy" {
		db, err := dummydb.Open()
		if err != nil {
			return repoSet{}, nil, err
		}
		return repoSet{
			pickups:  dummydb.NewPickupRepository(db),
			merges:   dummydb.NewMergeRepository(db),
			students: dummydb.NewStudentRepository(db),
			families: dummydb.NewFamilyRepository(db),
			users:    dummydb.NewUserRepository(db),
		}, func() error { return nil }, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return repoSet{}, nil, err
	}
	return repoSet{
		pickups:  sqlxrepos.NewPickupRepository(db),
		merges:   sqlxrepos.NewMergeRepository(db),
		students: sqlxrepos.NewStudentRepository(db),
		families: sqlxrepos.NewFamilyRepository(db),
		users:    sqlxrepos.NewUserRepository(db),
	}, db.Close, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
