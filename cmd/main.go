package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/burnwatch/burnwatch-api-poc/internal/api"
	"github.com/burnwatch/burnwatch-api-poc/internal/config"
	"github.com/burnwatch/burnwatch-api-poc/internal/delivery"
	"github.com/burnwatch/burnwatch-api-poc/internal/export"
	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
	"github.com/burnwatch/burnwatch-api-poc/internal/notification"
	"github.com/burnwatch/burnwatch-api-poc/internal/render"
	"github.com/burnwatch/burnwatch-api-poc/internal/severity"
	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

func printBanner() {
	banner := figure.NewFigure("Burnwatch", "isometric1", true)
	bannercolor.Cyan(banner.String())
	fmt.Println()
}

func main() {
	serve := false
	for _, arg := range os.Args[1:] {
		if arg == "--serve" {
			serve = true
		}
	}

	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("../.env")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("\033[31mConfiguration error: %s\033[0m\n", err.Error())
		os.Exit(1)
	}

	client := imagery.NewClient(cfg.ClientConfig())

	if serve {
		runServer(cfg, client)
		return
	}
	initCLI(cfg, client)
}

func runServer(cfg *config.Config, client *imagery.Client) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	router := gin.Default()
	handler := api.NewHandler(cfg, client, logger)
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving dashboard API", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func initCLI(cfg *config.Config, client *imagery.Client) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
			fmt.Printf("\033[31mPlease check the input and try again.\033[0m\n")
			errMessage := fmt.Sprintf("Burnwatch CLI panic:\n\n%v", r)
			if err := notification.SendDiscordErrorNotification(cfg.DiscordErrorWebhookURL, errMessage); err != nil {
				fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
			}
		}
	}()
	printBanner()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\033[34m===================\033[0m")
		fmt.Println("\033[34m1. Run burn severity analysis\033[0m")
		fmt.Println("\033[34m2. Download layer GeoTIFFs\033[0m")
		fmt.Println("\033[34m3. Render severity legend\033[0m")
		fmt.Println("\033[34m4. Exit\033[0m")
		fmt.Println("\033[34mEnter your choice:\033[0m")

		var choice int
		if _, err := fmt.Scan(&choice); err != nil {
			fmt.Printf("\n\033[31mInvalid input. Please enter a number.\033[0m\n")
			fmt.Scanln()
			continue
		}
		fmt.Scanln()

		switch choice {
		case 1:
			runAnalysis(cfg, client, logger, reader)
		case 2:
			downloadLayers(cfg, client, logger, reader)
		case 3:
			path := filepath.Join(cfg.OutputDir, "burn_severity_legend.png")
			if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
				fmt.Printf("\n\033[31mError creating output directory: %s\033[0m\n", err.Error())
				continue
			}
			if err := render.LegendPNG(path, cfg.Vis["burn_severity"]); err != nil {
				fmt.Printf("\n\033[31mError rendering legend: %s\033[0m\n", err.Error())
				continue
			}
			fmt.Printf("\n\033[32mLegend written to %s\033[0m\n", path)
		case 4:
			println("Exiting...")
			return
		default:
			println("Invalid choice. Please try again.")
		}
	}
}

func promptRequest(cfg *config.Config, reader *bufio.Reader) (delivery.Request, error) {
	req := delivery.Request{
		BeforeDate: cfg.DefaultBeforeDate,
		AfterDate:  cfg.DefaultAfterDate,
	}

	fmt.Printf("\033[34mBefore-fire date [%s]: \033[0m", req.BeforeDate.Format("2006-01-02"))
	line, _ := reader.ReadString('\n')
	if s := strings.TrimSpace(line); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return req, fmt.Errorf("invalid date %q: %v", s, err)
		}
		req.BeforeDate = t
	}

	fmt.Printf("\033[34mAfter-fire date [%s]: \033[0m", req.AfterDate.Format("2006-01-02"))
	line, _ = reader.ReadString('\n')
	if s := strings.TrimSpace(line); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return req, fmt.Errorf("invalid date %q: %v", s, err)
		}
		req.AfterDate = t
	}

	if !req.BeforeDate.Before(req.AfterDate) {
		return req, fmt.Errorf("before date %s must precede after date %s",
			req.BeforeDate.Format("2006-01-02"), req.AfterDate.Format("2006-01-02"))
	}
	return req, nil
}

func runAnalysis(cfg *config.Config, client *imagery.Client, logger *slog.Logger, reader *bufio.Reader) {
	req, err := promptRequest(cfg, reader)
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}

	analyzer := delivery.NewAnalyzer(cfg, client, logger)
	bar := progressbar.Default(int64(severity.Classes+1), "aggregating areas")
	analyzer.Progress = func(done, total int) {
		bar.Add(1)
	}

	report, err := analyzer.Run(context.Background(), req)
	if err != nil {
		fmt.Printf("\n\033[31mError running analysis: %s\033[0m\n", err.Error())
		notification.SendDiscordErrorNotification(cfg.DiscordErrorWebhookURL,
			fmt.Sprintf("Burnwatch CLI\n\nError running analysis: %s", err.Error()))
		return
	}

	if report.Degenerate {
		fmt.Printf("\n\033[33mWarning: no usable imagery (%s); results are zero sentinels.\033[0m\n", report.DegenerateReason)
	}
	if !report.Stats.Available {
		fmt.Printf("\n\033[33mArea statistics unavailable: %s\033[0m\n", report.Stats.Reason)
		return
	}

	fmt.Printf("\n\033[32mTotal burned area: %.0f ha\033[0m\n", report.Stats.BurnedHectares)
	for class := 0; class < severity.Classes; class++ {
		fmt.Printf("\033[32m  class %d (%s): %.0f ha\033[0m\n",
			class, severity.Labels[class], report.Stats.ClassHectares[class])
	}

	stamp := fmt.Sprintf("%s_%s", req.BeforeDate.Format("2006-01-02"), req.AfterDate.Format("2006-01-02"))
	csvPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("burn_area_stats_%s.csv", stamp))
	if err := export.WriteStatsCSV(csvPath, report.Stats); err != nil {
		fmt.Printf("\n\033[31mError writing statistics CSV: %s\033[0m\n", err.Error())
		return
	}

	chartPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("burn_area_by_class_%s.png", stamp))
	if err := render.ClassAreaPNG(chartPath, report.Stats, cfg.Vis["burn_severity"]); err != nil {
		fmt.Printf("\n\033[31mError rendering class area chart: %s\033[0m\n", err.Error())
		return
	}

	fmt.Printf("\n\033[32mSuccessful analysis!\n Statistics located at: %s\n Chart located at: %s\033[0m\n", csvPath, chartPath)
	notification.SendDiscordSuccessNotification(cfg.DiscordSuccessWebhookURL,
		fmt.Sprintf("Burnwatch CLI\n\nSuccessful analysis!\nTotal burned area: %.0f ha\nStatistics: %s", report.Stats.BurnedHectares, csvPath))
}

func downloadLayers(cfg *config.Config, client *imagery.Client, logger *slog.Logger, reader *bufio.Reader) {
	req, err := promptRequest(cfg, reader)
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}

	fmt.Print("\033[34mDownload scale in meters [10]: \033[0m")
	line, _ := reader.ReadString('\n')
	scale := 10.0
	if s := strings.TrimSpace(line); s != "" {
		scale, err = strconv.ParseFloat(s, 64)
		if err != nil || scale <= 0 {
			fmt.Printf("\n\033[31mInvalid scale value: %s\033[0m\n", s)
			return
		}
	}

	analyzer := delivery.NewAnalyzer(cfg, client, logger)
	images := analyzer.LayerImages(context.Background(), req)

	dir := filepath.Join(cfg.OutputDir, fmt.Sprintf("layers_%s_%s",
		req.BeforeDate.Format("2006-01-02"), req.AfterDate.Format("2006-01-02")))
	if err := export.DownloadLayers(context.Background(), client, images, cfg.ROI, scale, dir, 4, logger); err != nil {
		fmt.Printf("\n\033[31mError downloading layers: %s\033[0m\n", err.Error())
		notification.SendDiscordErrorNotification(cfg.DiscordErrorWebhookURL,
			fmt.Sprintf("Burnwatch CLI\n\nError downloading layers: %s", err.Error()))
		return
	}

	fmt.Printf("\n\033[32mLayers downloaded to %s\033[0m\n", dir)
}
