package fixtures

import "github.com/okian/recordbook/internal/domain/model"

var firstNames = []string{
	"Alex", "Bruno", "Carlos", "Dmitri", "Emil", "Felix", "Goran", "Hugo",
	"Ivan", "Jonas", "Karel", "Luca", "Marat", "Nico", "Oscar", "Pablo",
	"Quentin", "Rafael", "Stefan", "Tomas", "Ugo", "Viktor", "Wim", "Yannick",
}

var lastNames = []string{
	"Almeida", "Berg", "Costa", "Duval", "Eriksen", "Ferrer", "Gasquet", "Haas",
	"Ivanov", "Jansen", "Kovac", "Lindqvist", "Moreau", "Novak", "Olsen", "Petrov",
	"Quiroga", "Rossi", "Sousa", "Tanaka", "Urbina", "Varga", "Weber", "Zeller",
}

var countries = []string{"ARG", "AUS", "CZE", "ESP", "FRA", "GER", "ITA", "JPN", "NED", "RUS", "SRB", "SUI", "SWE", "USA"}

var cities = []string{
	"Melbourne", "Rotterdam", "Dubai", "Indian Wells", "Miami", "Monte Carlo", "Barcelona", "Madrid",
	"Rome", "Paris", "Halle", "London", "Hamburg", "Washington", "Montreal", "Cincinnati",
	"New York", "Beijing", "Tokyo", "Shanghai", "Vienna", "Basel", "Stockholm", "Turin",
}

// schedule is one tournament slot repeated every season.
type schedule struct {
	level   model.Level
	surface model.Surface
}

// calendarSlots cycles through the season; a season with N tournaments takes the first N slots.
var calendarSlots = []schedule{
	{model.LevelGrandSlam, model.SurfaceHard},
	{model.LevelTour, model.SurfaceCarpet},
	{model.LevelMasters, model.SurfaceHard},
	{model.LevelMasters, model.SurfaceClay},
	{model.LevelGrandSlam, model.SurfaceClay},
	{model.LevelTour, model.SurfaceGrass},
	{model.LevelGrandSlam, model.SurfaceGrass},
	{model.LevelGrandSlam, model.SurfaceHard},
	{model.LevelChallenger, model.SurfaceClay},
	{model.LevelTour, model.SurfaceHard},
}

// points awarded for reaching a round, indexed by rounds survived (0 = lost the opening round).
var roundPoints = []int{10, 45, 90, 180, 360, 720, 1200, 2000}

var levelWeight = map[model.Level]int{
	model.LevelGrandSlam:  4,
	model.LevelMasters:    2,
	model.LevelTour:       1,
	model.LevelChallenger: 1,
}

const (
	walkoverRate   = 0.02
	retirementRate = 0.03
	rankingWindow  = 364 // days a result counts towards ranking points
)
