package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle mirrors the API's vehicle payload.
type Vehicle struct {
	ID                string  `json:"id"`
	Siglas            string  `json:"siglas"`
	Name              string  `json:"name"`
	Year              int     `json:"year"`
	Category          string  `json:"category"`
	FuelType          string  `json:"fuel_type"`
	InitialOdometer   float64 `json:"initial_odometer"`
	InitialFuelLevel  float64 `json:"initial_fuel_level"`
	TankCapacity      float64 `json:"tank_capacity"`
	ConsumptionFactor float64 `json:"consumption_factor"`
}

// Movement mirrors the API's movement payload.
type Movement struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// VehicleState tracks the simulated odometer and fuel between ticks.
type VehicleState struct {
	VehicleID    string
	Siglas       string
	Odometer     float64
	FuelLevel    float64
	TankCapacity float64
	Factor       float64
	LastFillOdo  float64
}

var authToken string

func authorizedRequest(method, url string, body *bytes.Buffer) (*http.Response, error) {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func postJSON(url string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	resp, err := authorizedRequest(http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func createVehicle(apiURL string, index int) (*VehicleState, error) {
	categories := []string{"truck", "van", "pickup", "sedan"}
	names := map[string][]string{
		"truck":  {"Box Truck", "Flatbed", "Refrigerated Truck"},
		"van":    {"Cargo Van", "Crew Van"},
		"pickup": {"Utility Pickup", "Crew Cab"},
		"sedan":  {"Pool Sedan", "Courier Sedan"},
	}

	category := categories[rand.Intn(len(categories))]
	name := names[category][rand.Intn(len(names[category]))]
	tank := 40 + rand.Float64()*40
	odometer := float64(rand.Intn(50000))

	vehicle := Vehicle{
		Siglas:            fmt.Sprintf("SIM-%02d", index+1),
		Name:              name,
		Year:              2018 + rand.Intn(8),
		Category:          category,
		FuelType:          "diesel",
		InitialOdometer:   odometer,
		InitialFuelLevel:  tank * (0.4 + rand.Float64()*0.5),
		TankCapacity:      tank,
		ConsumptionFactor: 8 + rand.Float64()*6,
	}

	var created Vehicle
	if err := postJSON(apiURL+"/vehicles", vehicle, &created); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"vehicle_id": created.ID,
		"siglas":     vehicle.Siglas,
		"category":   category,
		"tank":       tank,
	}).Info("Created vehicle")

	return &VehicleState{
		VehicleID:    created.ID,
		Siglas:       vehicle.Siglas,
		Odometer:     odometer,
		FuelLevel:    vehicle.InitialFuelLevel,
		TankCapacity: tank,
		Factor:       vehicle.ConsumptionFactor,
		LastFillOdo:  odometer,
	}, nil
}

// runTrip opens a movement, waits out the trip, and checks it back in with
// the advanced odometer.
func runTrip(apiURL string, s *VehicleState, tripDuration time.Duration) error {
	var movement Movement
	err := postJSON(apiURL+"/movements/checkout", map[string]interface{}{
		"vehicle_id":   s.VehicleID,
		"odometer_out": s.Odometer,
		"purpose":      "simulated route",
	}, &movement)
	if err != nil {
		return fmt.Errorf("checkout failed: %w", err)
	}

	time.Sleep(tripDuration)

	distance := 20 + rand.Float64()*180
	s.Odometer += distance

	var result struct {
		Data Movement `json:"data"`
	}
	err = postJSON(apiURL+"/movements/checkin", map[string]interface{}{
		"movement_id": movement.ID,
		"odometer_in": s.Odometer,
	}, &result)
	if err != nil {
		return fmt.Errorf("checkin failed: %w", err)
	}

	s.FuelLevel -= distance / s.Factor
	if s.FuelLevel < 0 {
		s.FuelLevel = 0
	}

	log.WithFields(log.Fields{
		"vehicle_id": s.VehicleID,
		"siglas":     s.Siglas,
		"distance":   distance,
		"odometer":   s.Odometer,
		"fuel":       s.FuelLevel,
	}).Info("Trip completed")
	return nil
}

func refuel(apiURL string, s *VehicleState) error {
	liters := s.TankCapacity - s.FuelLevel
	if liters < 1 {
		return nil
	}

	err := postJSON(apiURL+"/fuel", map[string]interface{}{
		"vehicle_id":       s.VehicleID,
		"odometer_at_fill": s.Odometer,
		"liters":           liters,
		"price":            liters * (1.2 + rand.Float64()*0.4),
	}, nil)
	if err != nil {
		return fmt.Errorf("refuel failed: %w", err)
	}

	s.FuelLevel = s.TankCapacity
	s.LastFillOdo = s.Odometer
	log.WithFields(log.Fields{
		"vehicle_id": s.VehicleID,
		"siglas":     s.Siglas,
		"liters":     liters,
	}).Info("Refueled")
	return nil
}

func simulateVehicle(apiURL string, s *VehicleState, tick time.Duration) {
	for {
		if err := runTrip(apiURL, s, tick); err != nil {
			log.WithError(err).WithField("siglas", s.Siglas).Error("Trip failed")
			time.Sleep(tick)
			continue
		}

		// Refuel when the tank drops below a quarter
		if s.FuelLevel < s.TankCapacity*0.25 {
			if err := refuel(apiURL, s); err != nil {
				log.WithError(err).WithField("siglas", s.Siglas).Error("Refuel failed")
			}
		}

		time.Sleep(tick)
	}
}

func main() {
	// Optional JWT for protected API
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	fleetSize := 5
	if val := os.Getenv("FLEET_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			fleetSize = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	tick := 2 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			tick = time.Duration(n) * time.Second
		}
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"tick":       tick,
	}).Info("Starting fleet simulation")

	states := make([]*VehicleState, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		state, err := createVehicle(apiURL, i)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		states = append(states, state)
	}

	log.WithField("created_vehicles", len(states)).Info("Vehicle creation completed")
	if len(states) == 0 {
		log.Error("No vehicles created. Ensure SIM_AUTH_TOKEN is valid and API is reachable. Exiting.")
		time.Sleep(2 * time.Second)
		return
	}

	for _, s := range states {
		go simulateVehicle(apiURL, s, tick)
	}

	log.Info("Fleet simulation started")
	select {} // Block forever
}
