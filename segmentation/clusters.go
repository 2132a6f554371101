package segmentation

import (
	pc "go.viam.com/percept/pointcloud"
)

// Clusters keeps track of the individual segments of a point cloud: one cloud
// per cluster, plus the label assigning each source index to its cluster.
type Clusters struct {
	PointClouds []*pc.PointCloud
	Labels      []int32
}

// N gives the number of clusters in the partition of the point cloud.
func (c *Clusters) N() int {
	return len(c.PointClouds)
}

// NewClustersFromLabels splits a cloud by the dense labels produced by
// EuclideanClustering. Points labeled ClusterSentinel belong to no cluster.
func NewClustersFromLabels(cloud *pc.PointCloud, labels []int32, nClusters int) *Clusters {
	clouds := make([]*pc.PointCloud, nClusters)
	for i := range clouds {
		clouds[i] = pc.New()
	}
	for i, label := range labels {
		if label == ClusterSentinel {
			continue
		}
		clouds[label].Add(cloud.At(i))
	}
	return &Clusters{PointClouds: clouds, Labels: labels}
}
