package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stoiyeet/TravelShare/internal/domain"
	"github.com/stoiyeet/TravelShare/internal/geocode"
	"github.com/stoiyeet/TravelShare/internal/ownership"
	"github.com/stoiyeet/TravelShare/internal/repository"
	"github.com/stoiyeet/TravelShare/internal/storage"
)

// MaxBatchImages caps the files accepted by one batch upload.
const MaxBatchImages = 10

type ImageStore interface {
	Upload(ctx context.Context, cityID uuid.UUID, index int, img storage.Image) (string, error)
	Delete(ctx context.Context, url string) error
	KeyFor(url string) (string, error)
}

type Geocoder interface {
	Lookup(ctx context.Context, address string) (*domain.Position, error)
}

type CityService struct {
	cityRepo   repository.CityRepository
	groupRepo  repository.GroupRepository
	aggregator *ownership.Aggregator
	images     ImageStore
	geocoder   Geocoder
}

// NewCityService wires the city operations. images may be nil, in which
// case image operations fail with ErrStorageDisabled.
func NewCityService(
	cityRepo repository.CityRepository,
	groupRepo repository.GroupRepository,
	aggregator *ownership.Aggregator,
	images ImageStore,
	geocoder Geocoder,
) *CityService {
	return &CityService{
		cityRepo:   cityRepo,
		groupRepo:  groupRepo,
		aggregator: aggregator,
		images:     images,
		geocoder:   geocoder,
	}
}

type CreateCityInput struct {
	CityName string           `json:"cityName"`
	Country  string           `json:"country"`
	Emoji    string           `json:"emoji"`
	Date     *time.Time       `json:"date"`
	Notes    string           `json:"notes"`
	Position *domain.Position `json:"position"`
}

type UpdateCityInput struct {
	CityName *string          `json:"cityName"`
	Country  *string          `json:"country"`
	Emoji    *string          `json:"emoji"`
	Date     *time.Time       `json:"date"`
	Notes    *string          `json:"notes"`
	Position *domain.Position `json:"position"`
}

type BatchUploadResult struct {
	City          *domain.City `json:"city"`
	UploadedURLs  []string     `json:"uploaded_urls"`
	UploadedCount int          `json:"uploaded_count"`
}

// List returns every city with its owners. When groupID is set the list
// is narrowed to the group, which the caller must belong to.
func (s *CityService) List(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]domain.AggregatedCity, error) {
	var group *domain.Group
	if groupID != nil {
		g, err := s.groupRepo.GetByID(ctx, *groupID)
		if err != nil {
			return nil, err
		}
		if g == nil {
			return nil, ErrGroupNotFound
		}
		if !g.HasMember(userID) {
			return nil, ErrGroupForbidden
		}
		group = g
	}

	cities, err := s.aggregator.Aggregate(ctx)
	if err != nil {
		return nil, err
	}
	return ownership.FilterByGroup(cities, group), nil
}

func (s *CityService) Get(ctx context.Context, id uuid.UUID) (*domain.City, error) {
	city, err := s.cityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if city == nil {
		return nil, ErrCityNotFound
	}
	return city, nil
}

// Create stores a new city and adds it to the caller's locations.
func (s *CityService) Create(ctx context.Context, userID uuid.UUID, input CreateCityInput) (*domain.City, error) {
	city := &domain.City{
		ID:       uuid.New(),
		CityName: strings.TrimSpace(input.CityName),
		Country:  strings.TrimSpace(input.Country),
		Emoji:    input.Emoji,
		Date:     time.Now().UTC(),
		Notes:    input.Notes,
		Images:   []string{},
	}
	if input.Date != nil {
		city.Date = *input.Date
	}
	if input.Position != nil {
		city.Position = *input.Position
	}

	if err := s.cityRepo.CreateForUser(ctx, city, userID); err != nil {
		return nil, fmt.Errorf("creating city: %w", err)
	}
	return city, nil
}

func (s *CityService) Update(ctx context.Context, userID, id uuid.UUID, input UpdateCityInput) (*domain.City, error) {
	city, err := s.authorize(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.CityName != nil {
		city.CityName = strings.TrimSpace(*input.CityName)
	}
	if input.Country != nil {
		city.Country = strings.TrimSpace(*input.Country)
	}
	if input.Emoji != nil {
		city.Emoji = *input.Emoji
	}
	if input.Date != nil {
		city.Date = *input.Date
	}
	if input.Notes != nil {
		city.Notes = *input.Notes
	}
	if input.Position != nil {
		city.Position = *input.Position
	}

	if err := s.cityRepo.Update(ctx, city); err != nil {
		return nil, fmt.Errorf("updating city: %w", err)
	}
	return city, nil
}

// Delete removes the city from the store and from every user's locations.
// Its images are removed from storage on a best-effort basis.
func (s *CityService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	city, err := s.authorize(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.cityRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting city: %w", err)
	}

	if s.images == nil {
		return nil
	}
	for _, url := range city.Images {
		if err := s.images.Delete(ctx, url); err != nil {
			slog.Warn("leaving orphaned city image", "city_id", id, "url", url, "error", err)
		}
	}
	return nil
}

func (s *CityService) UploadImage(ctx context.Context, userID, id uuid.UUID, img storage.Image) (*domain.City, error) {
	if s.images == nil {
		return nil, ErrStorageDisabled
	}
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return nil, err
	}

	url, err := s.images.Upload(ctx, id, -1, img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return s.addImages(ctx, id, []string{url})
}

// UploadImages uploads all files concurrently. If any upload fails the
// city is left unchanged; objects already uploaded are not removed.
func (s *CityService) UploadImages(ctx context.Context, userID, id uuid.UUID, imgs []storage.Image) (*BatchUploadResult, error) {
	if s.images == nil {
		return nil, ErrStorageDisabled
	}
	if len(imgs) == 0 {
		return nil, ErrNoImages
	}
	if len(imgs) > MaxBatchImages {
		return nil, ErrTooManyImages
	}
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return nil, err
	}

	urls := make([]string, len(imgs))
	g, gctx := errgroup.WithContext(ctx)
	for i, img := range imgs {
		g.Go(func() error {
			url, err := s.images.Upload(gctx, id, i, img)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	city, err := s.addImages(ctx, id, urls)
	if err != nil {
		return nil, err
	}
	return &BatchUploadResult{City: city, UploadedURLs: urls, UploadedCount: len(urls)}, nil
}

func (s *CityService) DeleteImage(ctx context.Context, userID, id uuid.UUID, url string) (*domain.City, error) {
	if s.images == nil {
		return nil, ErrStorageDisabled
	}
	if _, err := s.images.KeyFor(url); err != nil {
		return nil, ErrInvalidImageURL
	}
	city, err := s.authorize(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(city.Images, url) {
		return nil, ErrInvalidImageURL
	}

	if err := s.images.Delete(ctx, url); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	city, err = s.cityRepo.RemoveImage(ctx, id, url)
	if err != nil {
		return nil, fmt.Errorf("removing image: %w", err)
	}
	if city == nil {
		return nil, ErrCityNotFound
	}
	return city, nil
}

// Visit adds an existing city to the caller's locations. Visiting a city
// twice is a no-op.
func (s *CityService) Visit(ctx context.Context, userID, id uuid.UUID) (*domain.City, error) {
	city, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cityRepo.AddOwner(ctx, id, userID); err != nil {
		return nil, fmt.Errorf("adding visit: %w", err)
	}
	return city, nil
}

func (s *CityService) Geocode(ctx context.Context, address string) (*domain.Position, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrAddressRequired
	}

	pos, err := s.geocoder.Lookup(ctx, address)
	switch {
	case errors.Is(err, geocode.ErrNoResults):
		return nil, ErrNoGeocodeResults
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return pos, nil
}

func (s *CityService) addImages(ctx context.Context, id uuid.UUID, urls []string) (*domain.City, error) {
	city, err := s.cityRepo.AddImages(ctx, id, urls)
	if err != nil {
		return nil, fmt.Errorf("saving images: %w", err)
	}
	if city == nil {
		return nil, ErrCityNotFound
	}
	return city, nil
}

// authorize loads the city and checks that userID has visited it.
func (s *CityService) authorize(ctx context.Context, userID, id uuid.UUID) (*domain.City, error) {
	city, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	owns, err := s.cityRepo.IsOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, ErrNotCityOwner
	}
	return city, nil
}
