package api

import (
	"encoding/json"  // Rent arrives as a JSON number or form string
	"mime/multipart" // Uploaded files
	"net/http"       // HTTP status codes
	"strconv"        // Redirect URLs
	"strings"        // String manipulation
	"time"           // Move-in dates

	"keja/internal/db"     // Case-insensitive matching helpers
	"keja/internal/domain" // Importing domain models
	"keja/internal/media"  // Upload storage
	"keja/internal/search" // Public search

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// relatedLimit caps the related listings shown on a detail page
const relatedLimit = 4

// dateLayout is the accepted date_available format
const dateLayout = "2006-01-02"

// PropertyForm holds the add and edit property form
type PropertyForm struct {
	Title         string      `form:"title" json:"title" binding:"required,max=200"`                                                      // Listing title
	PropertyType  string      `form:"property_type" json:"property_type" binding:"required,oneof=apartment house studio condo townhouse"` // One of domain.PropertyTypes
	RentAmount    json.Number `form:"rent_amount" json:"rent_amount" binding:"required"`                                                  // Monthly rent
	Location      string      `form:"location" json:"location" binding:"required,max=200"`                                                // Neighbourhood or city
	Address       string      `form:"address" json:"address" binding:"required"`                                                          // Street address
	Bedrooms      *int        `form:"bedrooms" json:"bedrooms" binding:"required,gte=0"`                                                  // Bedroom count
	Bathrooms     *int        `form:"bathrooms" json:"bathrooms" binding:"required,gte=0"`                                                // Bathroom count
	AreaSqft      *int        `form:"area_sqft" json:"area_sqft" binding:"required,gte=0"`                                                // Area in square feet
	Description   string      `form:"description" json:"description" binding:"required"`                                                  // Free text description
	Amenities     string      `form:"amenities" json:"amenities"`                                                                         // Optional, comma-separated
	DateAvailable string      `form:"date_available" json:"date_available" binding:"required"`                                            // YYYY-MM-DD
	IsAvailable   *bool       `form:"is_available" json:"is_available"`                                                                   // Edit only
}

// apply copies the form onto p, reporting values that do not parse
func (f *PropertyForm) apply(p *domain.Property) FieldErrors {
	fe := FieldErrors{}
	rent, err := domain.ParseRent(f.RentAmount.String())
	if err != nil {
		fe.Add("rent_amount", "Enter a number with at most 8 digits before and 2 after the decimal point.")
	} else if rent.IsNegative() {
		fe.Add("rent_amount", "Ensure this value is greater than or equal to 0.")
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(f.DateAvailable))
	if err != nil {
		fe.Add("date_available", "Enter a valid date.")
	}
	if fe.Any() {
		return fe
	}
	p.Title = strings.TrimSpace(f.Title)
	p.PropertyType = domain.PropertyType(f.PropertyType)
	p.RentAmount = rent
	p.Location = strings.TrimSpace(f.Location)
	p.Address = strings.TrimSpace(f.Address)
	p.Bedrooms = *f.Bedrooms
	p.Bathrooms = *f.Bathrooms
	p.AreaSqft = *f.AreaSqft
	p.Description = f.Description
	p.Amenities = strings.TrimSpace(f.Amenities)
	p.DateAvailable = date
	return nil
}

// PropertyView is a property as listed to clients
type PropertyView struct {
	domain.Property
	Display string          `json:"display"` // "Title - $rent/month"
	Image   domain.ImageRef `json:"image"`   // Main image or placeholder
}

func newPropertyView(p domain.Property) PropertyView {
	return PropertyView{Property: p, Display: p.String(), Image: p.Image()}
}

func newPropertyViews(ps []domain.Property) []PropertyView {
	views := make([]PropertyView, len(ps))
	for i, p := range ps {
		views[i] = newPropertyView(p)
	}
	return views
}

// propertyURL is the public detail page of a property
func propertyURL(id uint) string {
	return "/property/" + strconv.FormatUint(uint64(id), 10)
}

// pendingUpload is an accepted image that has not been stored yet
type pendingUpload struct {
	file   *multipart.FileHeader // Uploaded file
	folder string                // Destination below the media root
}

// checkUpload looks at an optional upload and records a field error when the
// file is rejected. Nothing is written until store is called.
func checkUpload(c *gin.Context, field, folder string, fe FieldErrors) *pendingUpload {
	fh := formFile(c, field)
	if fh == nil {
		return nil
	}
	if err := media.CheckImage(fh); err != nil {
		fe.Add(field, "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		return nil
	}
	return &pendingUpload{file: fh, folder: folder}
}

// store writes the upload, returning nil for a nil upload
func (u *pendingUpload) store(c *gin.Context, store media.Store) (*string, error) {
	if u == nil {
		return nil, nil
	}
	ref, err := store.Save(c, u.file, u.folder)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// discardUpload removes a stored file whose row was never written
func discardUpload(store media.Store, ref *string) {
	if ref == nil {
		return
	}
	if err := store.Remove(*ref); err != nil {
		logrus.WithError(err).WithField("ref", *ref).Warn("Failed to remove orphaned upload")
	}
}

// HomeHandler lists available properties matching the query filters
func HomeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := search.ParseParams(c.Request.URL.Query()) // Invalid filters are ignored
		res, err := search.Run(c.Request.Context(), db, params)
		if err != nil {
			respondServerError(c, "Failed to search properties", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"properties":       newPropertyViews(res.Properties), // Current page
			"page":             res.Page,                         // Page number
			"num_pages":        res.NumPages,                     // Page count
			"has_next":         res.HasNext,                      // Another page follows
			"has_previous":     res.HasPrevious,                  // A page precedes
			"count":            res.Count,                        // Matching listings
			"total_properties": res.TotalProperties,              // All available listings
			"property_types":   res.PropertyTypes,                // Types in the catalogue
			"filters": gin.H{ // Echo of the submitted filters
				"location":      c.Query("location"),
				"min_price":     c.Query("min_price"),
				"max_price":     c.Query("max_price"),
				"property_type": c.Query("property_type"),
				"bedrooms":      c.Query("bedrooms"),
			},
		})
	}
}

// PropertyDetailHandler shows an available property with related listings
func PropertyDetailHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		ctx := c.Request.Context()
		var property domain.Property
		// Unavailable listings are hidden from the public
		err = search.Available(conn.WithContext(ctx)).
			Preload("Landlord").
			Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at").Order("id") }).
			First(&property, id).Error
		if err != nil {
			respondLookupError(c, err, "property")
			return
		}
		related := []domain.Property{}
		if err := search.Available(conn.WithContext(ctx).Model(&domain.Property{})).
			Where(db.ContainsFold("location"), db.ContainsPattern(property.Location)).
			Where("id <> ?", property.ID).
			Order("created_at desc").Order("id desc").
			Limit(relatedLimit).
			Find(&related).Error; err != nil {
			respondServerError(c, "Failed to load related properties", err, logrus.Fields{"property_id": id})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"property":           newPropertyView(property), // The listing
			"related_properties": newPropertyViews(related), // Same area
		})
	}
}

// AddPropertyPageHandler shows the empty property form
func AddPropertyPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"page": "add_property", "property_types": domain.PropertyTypes})
	}
}

// AddPropertyHandler creates an available listing owned by the principal
func AddPropertyHandler(db *gorm.DB, store media.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		var form PropertyForm // Bind form to struct
		if fe := bindForm(c, &form); fe != nil {
			respondFormErrors(c, fe)
			return
		}
		property := domain.Property{
			LandlordID:  user.ID, // Principal becomes the landlord
			IsAvailable: true,    // New listings are public
		}
		fe := form.apply(&property)
		if fe == nil {
			fe = FieldErrors{}
		}
		upload := checkUpload(c, "main_image", "property_images", fe)
		if fe.Any() {
			respondFormErrors(c, fe)
			return
		}
		image, err := upload.store(c, store)
		if err != nil {
			respondServerError(c, "Failed to store image", err, logrus.Fields{"user_id": user.ID})
			return
		}
		property.MainImage = image
		if err := db.WithContext(c.Request.Context()).Create(&property).Error; err != nil {
			discardUpload(store, image)
			respondServerError(c, "Failed to create property", err, logrus.Fields{"user_id": user.ID})
			return
		}
		logrus.WithFields(logrus.Fields{
			"property_id": property.ID, // New listing
			"user_id":     user.ID,     // Landlord
		}).Info("Property created")
		c.Redirect(http.StatusFound, propertyURL(property.ID))
	}
}

// EditPropertyPageHandler shows the form prefilled with the principal's property
func EditPropertyPageHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		property, err := ownedProperty(c.Request.Context(), db, id, principal(c))
		if err != nil {
			respondLookupError(c, err, "property")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"page":           "edit_property",
			"property":       newPropertyView(*property),
			"property_types": domain.PropertyTypes,
		})
	}
}

// EditPropertyHandler updates one of the principal's properties
func EditPropertyHandler(db *gorm.DB, store media.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		// Someone else's property is a 404, same as a missing one
		property, err := ownedProperty(c.Request.Context(), db, id, user)
		if err != nil {
			respondLookupError(c, err, "property")
			return
		}
		var form PropertyForm // Bind form to struct
		if fe := bindForm(c, &form); fe != nil {
			respondFormErrors(c, fe)
			return
		}
		fe := form.apply(property)
		if fe == nil {
			fe = FieldErrors{}
		}
		upload := checkUpload(c, "main_image", "property_images", fe)
		if fe.Any() {
			respondFormErrors(c, fe)
			return
		}
		image, err := upload.store(c, store)
		if err != nil {
			respondServerError(c, "Failed to store image", err, logrus.Fields{"property_id": id})
			return
		}
		if image != nil {
			property.MainImage = image // Keep the old image unless a new one was sent
		}
		if form.IsAvailable != nil {
			property.IsAvailable = *form.IsAvailable
		}
		if err := db.WithContext(c.Request.Context()).Omit("Landlord", "Images").Save(property).Error; err != nil {
			discardUpload(store, image)
			respondServerError(c, "Failed to update property", err, logrus.Fields{"property_id": id})
			return
		}
		logrus.WithFields(logrus.Fields{
			"property_id": property.ID, // Updated listing
			"user_id":     user.ID,     // Landlord
		}).Info("Property updated")
		c.Redirect(http.StatusFound, propertyURL(property.ID))
	}
}

// MyPropertiesHandler lists every property of the principal, newest first
func MyPropertiesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		properties := []domain.Property{}
		if err := db.WithContext(c.Request.Context()).
			Where("landlord_id = ?", user.ID).
			Order("created_at desc").Order("id desc").
			Find(&properties).Error; err != nil {
			respondServerError(c, "Failed to load properties", err, logrus.Fields{"user_id": user.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"properties": newPropertyViews(properties)})
	}
}

// DeletePropertyPageHandler asks for confirmation before deleting
func DeletePropertyPageHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		property, err := ownedProperty(c.Request.Context(), db, id, principal(c))
		if err != nil {
			respondLookupError(c, err, "property")
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": "delete_property", "property": newPropertyView(*property)})
	}
}

// DeletePropertyHandler removes one of the principal's properties and its images
func DeletePropertyHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		property, err := ownedProperty(c.Request.Context(), db, id, user)
		if err != nil {
			respondLookupError(c, err, "property")
			return
		}
		// Gallery rows and the listing go together
		err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("property_id = ?", property.ID).Delete(&domain.PropertyImage{}).Error; err != nil {
				return err
			}
			return tx.Delete(property).Error
		})
		if err != nil {
			respondServerError(c, "Failed to delete property", err, logrus.Fields{"property_id": id})
			return
		}
		logrus.WithFields(logrus.Fields{
			"property_id": property.ID, // Deleted listing
			"user_id":     user.ID,     // Landlord
		}).Info("Property deleted")
		c.Redirect(http.StatusFound, "/my-properties")
	}
}

// PropertyImageForm holds a gallery upload caption
type PropertyImageForm struct {
	Caption string `form:"caption" json:"caption" binding:"max=200"` // Optional caption
}

// AddPropertyImageHandler adds a gallery image to one of the principal's properties
func AddPropertyImageHandler(db *gorm.DB, store media.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		property, err := ownedProperty(c.Request.Context(), db, id, principal(c))
		if err != nil {
			respondLookupError(c, err, "property")
			return
		}
		var form PropertyImageForm
		if fe := bindForm(c, &form); fe != nil {
			respondFormErrors(c, fe)
			return
		}
		fe := FieldErrors{}
		upload := checkUpload(c, "image", "property_images", fe)
		if upload == nil && !fe.Any() {
			fe.Add("image", "This field is required.")
		}
		if fe.Any() {
			respondFormErrors(c, fe)
			return
		}
		ref, err := upload.store(c, store)
		if err != nil {
			respondServerError(c, "Failed to store image", err, logrus.Fields{"property_id": id})
			return
		}
		image := domain.PropertyImage{
			PropertyID: property.ID,                     // Gallery owner
			Image:      *ref,                            // Stored file
			Caption:    strings.TrimSpace(form.Caption), // Optional caption
		}
		if err := db.WithContext(c.Request.Context()).Create(&image).Error; err != nil {
			discardUpload(store, ref)
			respondServerError(c, "Failed to save image", err, logrus.Fields{"property_id": id})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"image": image})
	}
}
