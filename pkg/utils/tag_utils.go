package utils

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/younsl/ec2stats/internal/models"
)

// GetTagValue returns the value of a tag with the given key
func GetTagValue(tags []models.Tag, key string) string {
	for _, tag := range tags {
		if tag.Key == key {
			return tag.Value
		}
	}
	return ""
}

// GetName returns the value of the Name tag
func GetName(tags []models.Tag) string {
	return GetTagValue(tags, "Name")
}

// ConvertEC2Tags copies EC2 tags into snapshot tags, preserving order.
// The result is never nil.
func ConvertEC2Tags(tags []types.Tag) []models.Tag {
	result := make([]models.Tag, 0, len(tags))
	for _, tag := range tags {
		result = append(result, models.Tag{
			Key:   aws.ToString(tag.Key),
			Value: aws.ToString(tag.Value),
		})
	}
	return result
}
