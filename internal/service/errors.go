package service

import "errors"

var (
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidCreds  = errors.New("invalid email or password")
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("current password is incorrect")

	ErrCityNotFound     = errors.New("city not found")
	ErrNotCityOwner     = errors.New("only a visitor of this city can change it")
	ErrInvalidImageURL  = errors.New("invalid image url")
	ErrNoImages         = errors.New("no images uploaded")
	ErrTooManyImages    = errors.New("too many images")
	ErrStorageDisabled  = errors.New("image storage is not configured")
	ErrAddressRequired  = errors.New("address is required")
	ErrNoGeocodeResults = errors.New("geocoding failed or no results found")
	ErrUpstream         = errors.New("upstream service failed")

	ErrGroupNotFound     = errors.New("group not found")
	ErrNotGroupCreator   = errors.New("only the group creator can change it")
	ErrGroupForbidden    = errors.New("you are not a member of this group")
	ErrGroupNameRequired = errors.New("group name is required")
)
