// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"github.com/your-org/storefront-backend/internal/pkg/phone"
)

// MaxAddresses caps the size of an address book
const MaxAddresses = 20

// AddressService manages saved delivery addresses
type AddressService struct {
	db *gorm.DB
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// AddressRequest represents address create/update data
type AddressRequest struct {
	Label        string `json:"label" binding:"max=50"`
	FullName     string `json:"full_name" binding:"required,max=200"`
	Phone        string `json:"phone" binding:"required,phone"`
	AddressLine1 string `json:"address_line1" binding:"required,max=255"`
	AddressLine2 string `json:"address_line2" binding:"max=255"`
	City         string `json:"city" binding:"required,max=100"`
	State        string `json:"state" binding:"max=100"`
	PostalCode   string `json:"postal_code" binding:"max=20"`
	Country      string `json:"country" binding:"required,len=2"`
	IsDefault    bool   `json:"is_default"`
}

// GetUserAddresses lists a user's addresses, default first
func (s *AddressService) GetUserAddresses(ctx context.Context, userID uint) ([]Address, error) {
	var addresses []Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get addresses: %w", err)
	}
	return addresses, nil
}

// GetAddress loads one of the user's addresses. Another user's address
// reads as not found.
func (s *AddressService) GetAddress(ctx context.Context, userID, addressID uint) (*Address, error) {
	return s.getAddress(s.db.WithContext(ctx), userID, addressID)
}

// GetAddressTx is GetAddress through the caller's transaction
func (s *AddressService) GetAddressTx(ctx context.Context, tx *gorm.DB, userID, addressID uint) (*Address, error) {
	return s.getAddress(tx.WithContext(ctx), userID, addressID)
}

// CreateAddress adds an address. The first address becomes the default.
func (s *AddressService) CreateAddress(ctx context.Context, userID uint, req *AddressRequest) (*Address, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var address Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if count >= MaxAddresses {
			return apperr.Validation("address.create", "address book is limited to %d entries", MaxAddresses)
		}

		isDefault := req.IsDefault || count == 0
		if isDefault {
			if err := unsetDefaultAddresses(tx, userID); err != nil {
				return err
			}
		}

		address = Address{UserID: userID}
		applyRequest(&address, req)
		address.IsDefault = isDefault
		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// UpdateAddress replaces an address's fields
func (s *AddressService) UpdateAddress(ctx context.Context, userID, addressID uint, req *AddressRequest) (*Address, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var address *Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.getAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if req.IsDefault && !a.IsDefault {
			if err := unsetDefaultAddresses(tx, userID); err != nil {
				return err
			}
		}
		wasDefault := a.IsDefault
		applyRequest(a, req)
		a.IsDefault = req.IsDefault || wasDefault
		if err := tx.Save(a).Error; err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		address = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress removes an address. If it was the default, the most
// recent remaining address takes over.
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.getAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&Address{}, a.ID).Error; err != nil {
			return fmt.Errorf("failed to delete address: %w", err)
		}
		if !a.IsDefault {
			return nil
		}

		var next Address
		err = tx.Where("user_id = ?", userID).Order("created_at DESC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find replacement default: %w", err)
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
}

// SetDefaultAddress marks one address as the default
func (s *AddressService) SetDefaultAddress(ctx context.Context, userID, addressID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.getAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if err := unsetDefaultAddresses(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(a).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}
		return nil
	})
}

func (s *AddressService) getAddress(db *gorm.DB, userID, addressID uint) (*Address, error) {
	var address Address
	err := db.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("address.get")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return &address, nil
}

func unsetDefaultAddresses(tx *gorm.DB, userID uint) error {
	err := tx.Model(&Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("failed to unset default addresses: %w", err)
	}
	return nil
}

func applyRequest(a *Address, req *AddressRequest) {
	a.Label = strings.TrimSpace(req.Label)
	a.FullName = strings.TrimSpace(req.FullName)
	a.Phone = phone.Normalize(req.Phone, req.Country)
	a.AddressLine1 = strings.TrimSpace(req.AddressLine1)
	a.AddressLine2 = strings.TrimSpace(req.AddressLine2)
	a.City = strings.TrimSpace(req.City)
	a.State = strings.TrimSpace(req.State)
	a.PostalCode = strings.TrimSpace(req.PostalCode)
	a.Country = strings.ToUpper(req.Country)
}

func validateRequest(req *AddressRequest) error {
	if err := validateCountryCode(req.Country); err != nil {
		return err
	}
	if !phone.ValidIn(req.Phone, req.Country) {
		return apperr.Validation("address.validate", "a valid phone number is required")
	}
	return nil
}

func validateCountryCode(countryCode string) error {
	if len(countryCode) != 2 {
		return apperr.Validation("address.validate", "country code must be 2 characters")
	}
	for _, r := range countryCode {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return apperr.Validation("address.validate", "country code must be alphabetic")
		}
	}
	return nil
}
