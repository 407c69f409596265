package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/daysync/internal/app"
	"github.com/yourorg/daysync/internal/config"
	appdb "github.com/yourorg/daysync/internal/db"
	"github.com/yourorg/daysync/internal/direction"
	"github.com/yourorg/daysync/internal/logging"
	"github.com/yourorg/daysync/internal/models"
)

func main() {
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("==== daysync CLI ====")
		fmt.Println("1) Health check API")
		fmt.Println("2) Ensure database schema")
		fmt.Println("3) Search itineraries")
		fmt.Println("4) Inspect line stations")
		fmt.Println("5) Exit")
		fmt.Print("Select option: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)
		switch choice {
		case "1":
			doHealthCheck()
		case "2":
			doEnsureSchema(cfg)
		case "3":
			doSearch(cfg, reader)
		case "4":
			doInspectLine(cfg, reader)
		case "5":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Invalid option")
		}
		fmt.Println()
	}
}

func doHealthCheck() {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:8080"
	}
	url := strings.TrimRight(base, "/") + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		fmt.Println("Health: ERROR:", err)
		return
	}
	defer resp.Body.Close()
	fmt.Println("Health status:", resp.Status)
}

func doEnsureSchema(cfg *config.Config) {
	db, err := appdb.Connect(cfg.Database)
	if err != nil {
		log.Println("DB connect error:", err)
		return
	}
	defer db.Close()
	if err := appdb.EnsureSchema(db, false); err != nil {
		log.Println("Ensure schema error:", err)
		return
	}
	fmt.Println("Schema OK")
}

func doSearch(cfg *config.Config, reader *bufio.Reader) {
	origin, err := promptCoordinate(reader, "Origin (lat,lon): ")
	if err != nil {
		fmt.Println("Invalid origin:", err)
		return
	}
	dest, err := promptCoordinate(reader, "Destination (lat,lon): ")
	if err != nil {
		fmt.Println("Invalid destination:", err)
		return
	}

	components, err := app.New(cfg)
	if err != nil {
		fmt.Println("Setup error:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.SearchTimeout)
	defer cancel()

	res, err := components.Search.Search(ctx, origin, dest)
	if err != nil {
		fmt.Println("Search error:", err)
		return
	}
	fmt.Printf("Search %s: %s, %d itineraries in %d ms\n", res.ID, res.Outcome, len(res.Itineraries), res.Stats.DurationMillis)
	for i, it := range res.Itineraries {
		fmt.Printf("\n#%d %s\n%s\n", i+1, it.Summary(), it.Detail())
	}
}

func doInspectLine(cfg *config.Config, reader *bufio.Reader) {
	fmt.Print("City code: ")
	city, _ := reader.ReadString('\n')
	fmt.Print("Line ID: ")
	line, _ := reader.ReadString('\n')

	components, err := app.New(cfg)
	if err != nil {
		fmt.Println("Setup error:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stations, err := components.Fetcher.Fetch(ctx, nil, strings.TrimSpace(city), strings.TrimSpace(line))
	if err != nil {
		fmt.Println("Fetch error:", err)
		return
	}
	turnarounds := direction.DetectTurnarounds(stations)
	marks := make(map[int]string, len(turnarounds))
	for _, t := range turnarounds {
		marks[t.Index] = string(t.Source)
	}
	for _, s := range stations {
		mark := ""
		if src, ok := marks[s.Index]; ok {
			mark = "  <- turnaround (" + src + ")"
		}
		fmt.Printf("%3d %-5s %s%s\n", s.Index, s.Direction, s.Name, mark)
	}
	fmt.Printf("%d stations, %d turnarounds\n", len(stations), len(turnarounds))
}

func promptCoordinate(reader *bufio.Reader, prompt string) (models.Coordinate, error) {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	return parseCoordinate(line)
}

// parseCoordinate reads "lat,lon" or "lat lon".
func parseCoordinate(s string) (models.Coordinate, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' })
	if len(fields) != 2 {
		return models.Coordinate{}, fmt.Errorf("expected \"lat,lon\", got %q", strings.TrimSpace(s))
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	return models.Coordinate{Lat: lat, Lon: lon}, nil
}
